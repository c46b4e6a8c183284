package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRedisLimiter_Window(t *testing.T) {
	srv, client := newMiniredis(t)
	limiter := NewRedisLimiter(client, Policy{MaxAttempts: 2, Window: time.Minute}, "login:")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := srv.Get("login:alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "3", count)
	assert.Equal(t, time.Minute, srv.TTL("login:alice@example.com"))

	ok, err = limiter.Allow(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	srv.FastForward(time.Minute)
	ok, err = limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_TTLNotExtendedByLaterHits(t *testing.T) {
	srv, client := newMiniredis(t)
	limiter := NewRedisLimiter(client, Policy{MaxAttempts: 5, Window: time.Minute}, "login:")
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	srv.FastForward(40 * time.Second)
	_, err = limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, srv.TTL("login:alice@example.com"))
}

func TestRedisLimiter_Reset(t *testing.T) {
	srv, client := newMiniredis(t)
	limiter := NewRedisLimiter(client, Policy{MaxAttempts: 1, Window: time.Minute}, "login:")
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	ok, err := limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "alice@example.com"))
	assert.False(t, srv.Exists("login:alice@example.com"))

	ok, err = limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_DisabledPolicySkipsRedis(t *testing.T) {
	limiter := NewRedisLimiter(unreachableClient(t), Policy{}, "login:")
	ok, err := limiter.Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_PropagatesErrors(t *testing.T) {
	limiter := NewRedisLimiter(unreachableClient(t), Policy{MaxAttempts: 1, Window: time.Minute}, "login:")

	ok, err := limiter.Allow(context.Background(), "alice")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, limiter.Reset(context.Background(), "alice"))
}
