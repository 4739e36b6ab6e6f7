package security

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a redis-backed fixed-window limiter, shared across
// instances unlike the report cache.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit returns a route middleware allowing at most limit requests per
// window per caller. Authenticated callers are keyed by record id,
// anonymous ones by IP. Redis failures let the request through; the
// limiter protects capacity, it is not an auth gate.
func (r *RateLimiter) Limit(scope string, limit int, window time.Duration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identity := e.RealIP()
		if e.Auth != nil {
			identity = "user:" + e.Auth.Id
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, identity)

		ctx := e.Request.Context()
		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, window)
			}
			if count > int64(limit) {
				return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
			}
		}

		return e.Next()
	}
}
