// Package ratelimit provides per-key request limiting, in process or shared through redis.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a fixed window counter per key. A window opens on the first request
// and admits limit requests until it closes.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory starts a janitor that drops closed windows. Call Close to stop it.
func NewMemory(limit int, every time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		windows: make(map[string]*window),
		limit:   limit,
		window:  every,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor(every)
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}
	w.count++
	return w.count <= m.limit, nil
}

func (m *Memory) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Memory) evictIdle() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// FixedWindowCounter is implemented by redisstore.Client.
type FixedWindowCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Redis shares a fixed window counter across API instances.
type Redis struct {
	counter FixedWindowCounter
	prefix  string
	limit   int64
	window  time.Duration
}

func NewRedis(counter FixedWindowCounter, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{counter: counter, prefix: prefix, limit: int64(limit), window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, err := r.counter.FixedWindowAllow(ctx, r.prefix+":"+key, r.limit, r.window)
	return allowed, err
}
