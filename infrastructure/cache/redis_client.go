package cache

import (
	"context"
	"fmt"
	"net"

	"social-relay/infrastructure/configuration"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings once so misconfiguration surfaces at startup.
func NewRedisClient(ctx context.Context, cfg configuration.RedisClient) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	return rdb, nil
}
