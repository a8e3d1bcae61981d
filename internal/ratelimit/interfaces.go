// Package ratelimit provides login attempt rate limiting abstractions.
// For single-node deployments, memory-based counters are used.
// For distributed deployments, Redis-based counters can be used.
package ratelimit

import (
	"context"
)

// Limiter defines the interface for fixed-window attempt limiting.
// This abstraction allows switching between in-memory counters (single-node)
// and Redis-based counters (distributed) without changing business logic.
type Limiter interface {
	// Allow records an attempt for the given key and reports whether the
	// attempt is within the window's budget. Once a window's budget is
	// exhausted every further attempt in that window is denied.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the counter for the given key, typically after a
	// successful login.
	Reset(ctx context.Context, key string) error
}

// Keys provides limiter key generation for common scenarios.
var Keys = limiterKeys{}

type limiterKeys struct{}

// Login returns a limiter key for login attempts by username.
func (limiterKeys) Login(username string) string {
	return "ratelimit:login:" + username
}
