package leads

import (
	"context"
	"time"

	"leadmarket-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles public intake per source.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window limiter backed by Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, perMinute int) *RedisLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &RedisLimiter{rdb: rdb, limit: perMinute, window: time.Minute}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return utils.AllowRate(ctx, l.rdb, "intake:"+key, l.limit, l.window)
}

// NopLimiter always allows. Used when Redis is not configured and in tests.
type NopLimiter struct{}

func (NopLimiter) Allow(ctx context.Context, key string) (bool, error) {
	_, _ = ctx, key
	return true, nil
}
