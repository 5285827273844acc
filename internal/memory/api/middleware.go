package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Sarah_AI/pkg/ratelimiter"
)

// RateLimitMiddleware rejects requests beyond the token bucket's rate with
// a 429. The bucket is shared across all routes it is mounted on.
func RateLimitMiddleware(ratePerSecond float64, burst int) gin.HandlerFunc {
	var limiter ratelimiter.RateLimiter = ratelimiter.NewTokenBucket(ratePerSecond, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
