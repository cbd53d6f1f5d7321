package security

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// PaymentRateLimit bounds protocol submissions per client IP. Wallet
// retries are legitimate, so the limit is generous; it exists to stop
// runaway clients from hammering the node RPC.
func (r *RateLimiter) PaymentRateLimit(maxPerMinute int64) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ip := e.RealIP()
		key := fmt.Sprintf("paypro:ratelimit:%s", ip)

		ctx := e.Request.Context()
		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, time.Minute)
			}
			if count > maxPerMinute {
				return apis.NewTooManyRequestsError("Too many requests", nil)
			}
		}

		return e.Next()
	}
}
