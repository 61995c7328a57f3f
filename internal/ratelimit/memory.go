package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps per-key request timestamps in process memory with a
// lazy expiry sweep. State is lost on restart and not shared between
// instances; it exists only as a fallback when Redis is unreachable.
type MemoryLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryLimiter builds an empty limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

const sweepInterval = time.Minute

// Allow records one request and reports whether the key stays within limit
// for the sliding window. Rejected attempts are recorded too, matching the
// Redis limiter's penalty for clients that keep retrying past the limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > sweepInterval {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	kept := trimBefore(l.requests[key], cutoff)
	allowed := len(kept) < limit
	l.requests[key] = append(kept, now)
	return allowed, nil
}

// sweep drops keys whose every entry fell out of the window.
func (l *MemoryLimiter) sweep(cutoff time.Time) {
	for key, stamps := range l.requests {
		kept := trimBefore(stamps, cutoff)
		if len(kept) == 0 {
			delete(l.requests, key)
			continue
		}
		l.requests[key] = kept
	}
}

func trimBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	return stamps[idx:]
}
