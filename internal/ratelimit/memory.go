package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements Limiter using in-memory fixed windows.
// This is suitable for single-node deployments. Counters are NOT shared
// across process restarts or multiple instances.
type MemoryLimiter struct {
	mu          sync.Mutex
	windows     map[string]*windowEntry
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// windowEntry tracks attempts within one fixed window.
type windowEntry struct {
	count     int
	expiresAt time.Time
}

// NewMemoryLimiter creates a new in-memory limiter allowing maxAttempts
// per window.
func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	ml := &MemoryLimiter{
		windows:     make(map[string]*windowEntry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}

	// Start a background goroutine to clean up expired windows.
	go ml.cleanupLoop()

	return ml
}

// cleanupLoop periodically removes expired windows.
func (m *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanup()
	}
}

// cleanup removes expired windows.
func (m *MemoryLimiter) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.windows {
		if now.After(entry.expiresAt) {
			delete(m.windows, key)
		}
	}
}

// Allow records an attempt and reports whether it is within the budget.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	entry, exists := m.windows[key]
	if !exists || now.After(entry.expiresAt) {
		// Fresh window.
		m.windows[key] = &windowEntry{
			count:     1,
			expiresAt: now.Add(m.window),
		}
		return true, nil
	}

	entry.count++
	return entry.count <= m.maxAttempts, nil
}

// Reset clears the counter for the given key.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.windows, key)
	return nil
}

// Ensure MemoryLimiter implements Limiter.
var _ Limiter = (*MemoryLimiter)(nil)
