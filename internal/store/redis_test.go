package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSocketWindowKey(t *testing.T) {
	req := require.New(t)
	start := time.Unix(1_700_000_040, 0)

	first := socketWindowKey("u1", start, time.Minute)
	req.Equal(first, socketWindowKey("u1", start.Add(10*time.Second), time.Minute))
	req.NotEqual(first, socketWindowKey("u1", start.Add(time.Minute), time.Minute))
	req.NotEqual(first, socketWindowKey("u2", start, time.Minute))
	req.NotPanics(func() { socketWindowKey("u1", start, 0) })
}

func TestRedisStore_NilAllows(t *testing.T) {
	var s *RedisStore
	require.True(t, s.AllowSocketMessage(context.Background(), "u1", 1, time.Minute))
}

// Runs against a live server, e.g. REDIS_TEST_URL=redis://localhost:6379/15.
func TestRedisStore_AllowSocketMessage(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	req := require.New(t)
	ctx := context.Background()

	s, err := NewRedisStore(ctx, url)
	req.NoError(err)
	t.Cleanup(func() { _ = s.Close() })

	sender := "socket-" + uuid.NewString()
	window := time.Hour
	for i := 0; i < 3; i++ {
		req.True(s.AllowSocketMessage(ctx, sender, 3, window), "message %d", i)
	}
	req.False(s.AllowSocketMessage(ctx, sender, 3, window))

	ttl, err := s.client.TTL(ctx, socketWindowKey(sender, time.Now(), window)).Result()
	req.NoError(err)
	req.Greater(ttl, time.Duration(0))
}
