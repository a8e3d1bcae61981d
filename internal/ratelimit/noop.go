package ratelimit

import (
	"context"
)

// NoopLimiter implements Limiter without limiting anything.
// Used when rate limiting is disabled in configuration.
type NoopLimiter struct{}

// NewNoopLimiter creates a limiter that allows every attempt.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow always allows the attempt.
func (n *NoopLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

// Reset is a no-op.
func (n *NoopLimiter) Reset(ctx context.Context, key string) error {
	return nil
}

// Ensure NoopLimiter implements Limiter.
var _ Limiter = (*NoopLimiter)(nil)
