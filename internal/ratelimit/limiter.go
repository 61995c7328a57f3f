// Package ratelimit bounds repeated requests per client address. The Redis
// implementation shares its counters across server instances; the in-memory
// implementation is a per-process degradation path used when Redis is
// unavailable.
package ratelimit

import (
	"context"
	"time"
)

// Limiter answers whether a keyed caller is still within its request budget.
type Limiter interface {
	// Allow records one request for key and reports whether it fits inside
	// the window of at most limit requests.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
