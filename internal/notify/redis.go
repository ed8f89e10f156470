package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const streamKey = "aicity:notifications"

// RedisSink forwards bus notifications onto a Redis Stream so external
// consumers (dashboards, websocket relays) can tail city activity.
type RedisSink struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(redisURL string, logger *zap.Logger) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSink{rdb: rdb, logger: logger}, nil
}

// Run consumes the bus subscription until the context is cancelled.
// Intended to run on its own goroutine.
func (s *RedisSink) Run(ctx context.Context, ch <-chan Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := s.publish(ctx, n); err != nil {
				s.logger.Warn("redis stream publish failed",
					zap.String("topic", string(n.Topic)),
					zap.Error(err))
			}
		}
	}
}

func (s *RedisSink) publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"topic": string(n.Topic),
			"data":  string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", streamKey, err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
