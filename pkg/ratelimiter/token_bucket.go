package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket is a RateLimiter admitting a sustained rate with bursts up to
// the bucket capacity. Tokens accrue continuously; each admitted request
// consumes one.
type TokenBucket struct {
	rate     float64 // tokens added per second
	capacity float64
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// NewTokenBucket creates a bucket that starts full, so the first burst of
// up to capacity requests passes immediately.
func NewTokenBucket(ratePerSecond float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     ratePerSecond,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		lastFill: time.Now(),
	}
}

// Allow consumes one token if available.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(b.lastFill); elapsed > 0 {
		b.tokens += elapsed.Seconds() * b.rate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastFill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}
