package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rate_limit:"

// RedisLimiter implements a sliding window over a Redis sorted set, so the
// budget holds across concurrent server instances.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter wraps a go-redis client.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow trims entries older than the window, counts the remainder and admits
// the request when the count is below limit. The commands run in one pipeline
// round trip. Every attempt is recorded, rejected ones included, so a client
// that keeps hammering past the limit keeps its window full and stays locked
// out until it backs off.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	fullKey := redisKeyPrefix + key
	windowStart := now.Add(-window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, fullKey)
	pipe.ZAdd(ctx, fullKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, fullKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return countCmd.Val() < int64(limit), nil
}
