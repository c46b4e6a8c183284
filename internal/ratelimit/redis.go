package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares counters across instances through Redis.
type RedisLimiter struct {
	client redis.Cmdable
	policy Policy
	prefix string
}

// NewRedisLimiter builds a limiter whose keys are namespaced by prefix.
func NewRedisLimiter(client redis.Cmdable, policy Policy, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy, prefix: prefix}
}

// Allow implements Limiter. The window key is created with its TTL by SET NX
// EX and incremented in the same MULTI block, so a counter never outlives
// its window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.policy.Enabled() {
		return true, nil
	}

	fullKey := l.prefix + key
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, fullKey, 0, l.policy.Window)
		incr = pipe.Incr(ctx, fullKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(l.policy.MaxAttempts), nil
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("reset rate limit %s: %w", key, err)
	}
	return nil
}
