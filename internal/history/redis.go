package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKey = "diaryfill:runs"

// RedisRecorder stores entries as JSON in a capped Redis list.
type RedisRecorder struct {
	client *redis.Client
	key    string
	limit  int64
}

// NewRedisRecorder connects to redisURL and keeps at most limit entries.
func NewRedisRecorder(redisURL string, limit int) (*RedisRecorder, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisRecorderWithClient(client, limit), nil
}

// NewRedisRecorderWithClient creates a recorder from an existing client.
func NewRedisRecorderWithClient(client *redis.Client, limit int) *RedisRecorder {
	if limit <= 0 {
		limit = 1
	}
	return &RedisRecorder{client: client, key: defaultKey, limit: int64(limit)}
}

func (r *RedisRecorder) Record(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal run entry: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (r *RedisRecorder) Recent(ctx context.Context, n int) ([]Entry, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	items, err := r.client.LRange(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("unmarshal run entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Ping checks if Redis is reachable.
func (r *RedisRecorder) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
