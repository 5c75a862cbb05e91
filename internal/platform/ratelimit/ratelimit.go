package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the shared request counter injected into the HTTP layer.
// Limits must be shared across service instances, so the production
// implementation lives in Redis; the in-memory one covers tests and
// single-process runs.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window counter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	limit   int
	window  time.Duration
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		windows: make(map[string]memoryWindow),
		limit:   limit,
		window:  window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	win, exists := l.windows[key]
	if !exists || now.After(win.resetAt) {
		l.windows[key] = memoryWindow{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}
	if win.count >= l.limit {
		return false, nil
	}
	win.count++
	l.windows[key] = win
	return true, nil
}
