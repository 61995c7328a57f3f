package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// FallbackLimiter consults a primary limiter and degrades to a secondary one
// when the primary errors. Used to keep throttling best-effort while Redis is
// down instead of failing requests outright.
type FallbackLimiter struct {
	primary   Limiter
	secondary Limiter
	logger    *zap.Logger
}

// NewFallbackLimiter composes primary and secondary limiters.
func NewFallbackLimiter(primary, secondary Limiter, logger *zap.Logger) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, secondary: secondary, logger: logger}
}

// Allow defers to the primary limiter, then the secondary on error.
func (l *FallbackLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.primary != nil {
		allowed, err := l.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		l.logger.Warn("primary rate limiter unavailable", zap.Error(err))
	}
	if l.secondary == nil {
		return true, nil
	}
	return l.secondary.Allow(ctx, key, limit, window)
}
