package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

type publishFunc func(ctx context.Context, msg *pubsub.Message) (string, error)

// PostEventPublisher sends post events to a Google Cloud Pub/Sub topic as JSON.
type PostEventPublisher struct {
	publish publishFunc
	ensure  func(ctx context.Context) error

	mu        sync.Mutex
	ensured   bool
	topicName string
}

// NewPostEventPublisher creates the topic on first use when it does not exist yet.
func NewPostEventPublisher(client *pubsub.Client, topicName string) repository.IPostEvents {
	topic := client.Topic(topicName)
	return &PostEventPublisher{
		topicName: topicName,
		publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return topic.Publish(ctx, msg).Get(ctx)
		},
		ensure: func(ctx context.Context) error {
			exists, err := topic.Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
			logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist, creating it")
			_, err = client.CreateTopic(ctx, topicName)
			return err
		},
	}
}

func (p *PostEventPublisher) Publish(ctx context.Context, evt model.PostEvent) error {
	if err := p.ensureTopic(ctx); err != nil {
		return fmt.Errorf("pubsub: ensure topic %s: %w", p.topicName, err)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	serverID, err := p.publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":     evt.Type,
			"provider": evt.Provider,
		},
	})
	if err != nil {
		return fmt.Errorf("pubsub: publish: %w", err)
	}

	logger.GetLogger().
		WithField("server_id", serverID).
		WithField("provider", evt.Provider).
		Debug("Post event published")
	return nil
}

func (p *PostEventPublisher) ensureTopic(ctx context.Context) error {
	if p.ensure == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ensured {
		return nil
	}
	if err := p.ensure(ctx); err != nil {
		return err
	}
	p.ensured = true
	return nil
}
