// Package ratelimit throttles login and password-reset attempts per key.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (bool, error)
}

// Memory is a sliding-window limiter kept in process memory. It allows at
// most Max attempts per key within Window.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
}

func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
	}
}

func (l *Memory) Allow(_ context.Context, key string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	ts := l.entries[key]

	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	ts = kept
	if len(ts) >= l.max {
		l.entries[key] = ts
		return false, nil
	}

	l.entries[key] = append(ts, now)
	return true, nil
}

// Prune drops keys with no attempts inside the window.
func (l *Memory) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	for k, ts := range l.entries {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.entries, k)
		}
	}
}
