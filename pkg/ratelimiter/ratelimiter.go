package ratelimiter

// RateLimiter answers, per request, whether it may proceed. Implementations
// must be safe for concurrent use.
type RateLimiter interface {
	Allow() bool
}
