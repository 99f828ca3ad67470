package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// PostEventChannel publishes post events on a Redis pub/sub channel.
type PostEventChannel struct {
	rdb     publisher
	channel string
}

func NewPostEventChannel(rdb publisher, channel string) repository.IPostEvents {
	return &PostEventChannel{rdb: rdb, channel: channel}
}

func (p *PostEventChannel) Publish(ctx context.Context, evt model.PostEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	receivers, err := p.rdb.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return fmt.Errorf("redis: publish %s: %w", p.channel, err)
	}
	logger.GetLogger().
		WithField("channel", p.channel).
		WithField("receivers", receivers).
		Debug("Post event published")
	return nil
}
