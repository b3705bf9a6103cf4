package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a process-wide token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows qps events per second with a burst of qps.
// qps <= 0 means unlimited.
func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(qps), qps)}
}

// Allow reports whether one event may happen now, without blocking.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// QPS returns the configured rate, 0 when unlimited.
func (r *RateLimiter) QPS() int {
	limit := r.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return int(limit)
}

// Middleware rejects requests with 429 once the bucket is empty.
func (r *RateLimiter) Middleware(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow() {
			c.Abort()
			c.String(http.StatusTooManyRequests, message)
			return
		}
		c.Next()
	}
}
