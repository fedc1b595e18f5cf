package redis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/util"
)

// RateLimiter implements a fixed-window counter per key.
type RateLimiter interface {
	// Allow increments the counter for key and reports whether the call
	// stays within limit for the current window.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

type rateLimitCache struct {
	redis *client.RedisClient
}

func NewRateLimiter(redisClient *client.RedisClient, logger *zap.Logger) RateLimiter {
	return &rateLimitCache{redis: redisClient}
}

func (c *rateLimitCache) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	count, err := c.redis.IncrWithExpire(ctx, "ratelimit:"+key, window)
	if err != nil {
		// Fail open when the cache is unreachable
		util.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
		return true, nil
	}

	if count > limit {
		util.Debug("Rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int64("limit", limit))
		return false, nil
	}

	return true, nil
}
