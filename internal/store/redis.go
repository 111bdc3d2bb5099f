package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore holds the Redis client used for request throttling and IP blocks.
// Chat data never lives here.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying client; nil when the store is nil.
func (s *RedisStore) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// socketWindowKey returns the counter key for a sender's socket messages in
// the fixed window containing now.
func socketWindowKey(senderID string, now time.Time, window time.Duration) string {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return fmt.Sprintf("ratelimit:socket:%s:%d", senderID, now.Unix()/secs)
}

// AllowSocketMessage counts a socket sendMessage against a fixed window and
// reports whether the sender is still under limit. Each window has its own
// key, so a plain EXPIRE is enough. Errors fail open.
func (s *RedisStore) AllowSocketMessage(ctx context.Context, senderID string, limit int, window time.Duration) bool {
	if s == nil {
		return true
	}
	key := socketWindowKey(senderID, time.Now(), window)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return true
	}
	return incr.Val() <= int64(limit)
}
