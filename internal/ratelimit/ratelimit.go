// Package ratelimit implements a process-local sliding-window request
// limiter keyed by opaque strings (e.g. "login:<ip>").
//
// Each key owns an ordered slice of hit timestamps; a check prunes entries
// older than the window, records the new hit, and reports whether the window
// now holds more than the allowed count. A rejected attempt still counts, so
// hammering a limited key keeps it hot.
//
// Notes:
//   - The limiter is process-local and best-effort. For horizontally scaled
//     deployments, prefer a shared store such as Redis.
//   - Keys are never evicted on their own; long-lived processes accumulate
//     one entry per distinct key. Callers that can detect success (e.g. a
//     completed login) should Clear the key.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a concurrency-safe sliding-window counter over string keys.
// The zero value is not usable; construct with New.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	// Now is the clock used for pruning and stamping hits. Overridable in
	// tests; defaults to time.Now.
	Now func() time.Time
}

// New returns an empty Limiter using the wall clock.
func New() *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		Now:     time.Now,
	}
}

// Check records a hit for key and reports whether the key exceeded limit
// hits within the trailing window (true = rate limited).
//
// The hit is recorded regardless of the outcome; a caller that has already
// tripped the limit keeps extending its own lockout by retrying.
func (l *Limiter) Check(key string, limit int, window time.Duration) bool {
	now := l.Now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.windows[key]
	kept := rec[:0]
	for _, t := range rec {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	l.windows[key] = kept

	return len(kept) > limit
}

// Clear forgives all recorded hits for key (e.g. after a successful login).
func (l *Limiter) Clear(key string) {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
}

// Len returns the number of tracked keys. Intended for diagnostics only.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
