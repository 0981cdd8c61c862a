// Package cooldown tracks per-user mining cooldown windows. The memory
// tracker serves a single process; the Redis tracker shares the window
// across instances.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Tracker gates how often a user may mine. Remaining reports how long
// until the next mine is allowed (zero means allowed now); Mark records
// a successful mine and opens a fresh window.
type Tracker interface {
	Remaining(ctx context.Context, userID string) (time.Duration, error)
	Mark(ctx context.Context, userID string) error
}

// Memory is an in-process Tracker.
type Memory struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// MemoryOption configures a Memory tracker.
type MemoryOption func(*Memory)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an in-process tracker with the given window.
func NewMemory(window time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Remaining(_ context.Context, userID string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.last[userID]
	if !ok {
		return 0, nil
	}
	remaining := m.window - m.now().Sub(last)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (m *Memory) Mark(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last[userID] = m.now()
	return nil
}
