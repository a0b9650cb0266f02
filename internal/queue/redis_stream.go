package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStreamSink appends events to a Redis stream as {kind, data, timestamp}.
type RedisStreamSink struct {
	Client *redis.Client
	Stream string
	MaxLen int64
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStreamSink) Append(ctx context.Context, ev RequestEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode request event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.Stream,
		Values: map[string]interface{}{
			"kind":      string(ev.Kind),
			"data":      string(data),
			"timestamp": ev.At.Unix(),
		},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
		args.Approx = true
	}

	if err := s.Client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.Stream, err)
	}
	return nil
}
