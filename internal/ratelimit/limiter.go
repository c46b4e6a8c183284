// Package ratelimit throttles repeated attempts per key within a fixed window.
package ratelimit

import (
	"context"
	"time"
)

// Limiter counts attempts per key.
type Limiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the attempts recorded for key.
	Reset(ctx context.Context, key string) error
}

// Policy is a fixed-window limit.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.MaxAttempts > 0 && p.Window > 0
}
