package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL("redis://localhost:6379/15")
	if err != nil {
		t.Skip("Redis URL not parseable, skipping")
	}
	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available for testing")
	}
	client.FlushDB(ctx)
	return client
}

func TestRateLimiter(t *testing.T) {
	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	ctx := context.Background()
	limiter := NewRateLimiter(redisClient)

	t.Run("denies the call past the limit", func(t *testing.T) {
		key := "auth:10.0.0.1"
		limit := 5
		window := 10 * time.Second

		for i := 0; i < limit; i++ {
			allowed, _ := limiter.CheckLimit(ctx, key, limit, window)
			assert.True(t, allowed, "call %d should be allowed", i+1)
		}

		allowed, resetAt := limiter.CheckLimit(ctx, key, limit, window)
		assert.False(t, allowed)
		assert.True(t, resetAt.After(time.Now()))
	})

	t.Run("window slides", func(t *testing.T) {
		key := "generate:10.0.0.2"
		window := 1 * time.Second

		allowed, _ := limiter.CheckLimit(ctx, key, 1, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, key, 1, window)
		assert.False(t, allowed)

		time.Sleep(1100 * time.Millisecond)

		allowed, _ = limiter.CheckLimit(ctx, key, 1, window)
		assert.True(t, allowed)
	})

	t.Run("scopes and IPs are independent", func(t *testing.T) {
		window := 10 * time.Second

		allowed, _ := limiter.CheckLimit(ctx, "auth:10.0.0.3", 1, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "auth:10.0.0.3", 1, window)
		assert.False(t, allowed)

		allowed, _ = limiter.CheckLimit(ctx, "generate:10.0.0.3", 1, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "auth:10.0.0.4", 1, window)
		assert.True(t, allowed)
	})
}

func TestRateLimiter_FailsClosed(t *testing.T) {
	unreachable := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	defer unreachable.Close()

	limiter := NewRateLimiter(unreachable)

	allowed, resetAt := limiter.CheckLimit(context.Background(), "auth:10.0.0.1", 10, time.Minute)
	require.False(t, allowed, "redis failure must deny the call")
	require.True(t, resetAt.After(time.Now()))
}
