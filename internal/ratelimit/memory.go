package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Limiter. State is lost on restart and is not shared between
// instances; use Redis for that.
type Memory struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	dead    bool // removed from the map by the sweeper
}

// MemoryOption customizes a Memory limiter.
type MemoryOption func(*Memory)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an in-process limiter.
func NewMemory(cfg Config, opts ...MemoryOption) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Memory{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Take implements Limiter.
func (m *Memory) Take(_ context.Context, key string) (Decision, error) {
	for {
		e := m.get(key)

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}

		now := m.now()
		if !now.Before(e.resetAt) {
			e.count = 0
			e.resetAt = now.Add(m.cfg.Window)
		}

		if e.count >= m.cfg.MaxAttempts {
			d := Decision{Allowed: false, RetryAfter: e.resetAt.Sub(now)}
			e.mu.Unlock()

			return d, nil
		}

		e.count++
		d := Decision{Allowed: true, Remaining: m.cfg.MaxAttempts - e.count}
		e.mu.Unlock()

		return d, nil
	}
}

// Refund implements Limiter.
func (m *Memory) Refund(_ context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()

	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count > 0 && m.now().Before(e.resetAt) {
		e.count--
	}

	return nil
}

// Sweep drops identifiers whose window has elapsed.
func (m *Memory) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		e.mu.Lock()
		if !now.Before(e.resetAt) {
			e.dead = true
			delete(m.entries, key)
		}
		e.mu.Unlock()
	}
}

// tracked returns the number of identifiers with a live window.
func (m *Memory) tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *Memory) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.cfg.Window
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Memory) get(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}

	return e
}

var _ Limiter = (*Memory)(nil)
