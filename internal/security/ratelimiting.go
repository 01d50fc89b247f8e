// Package security provides rate limiting for the public approval endpoints
// and login, keyed by caller IP.
package security

import (
	"sync"
	"time"
)

// RateLimiter implements a token bucket per identifier.
// Thread-safe; identifiers that go quiet are evicted in the background.
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.RWMutex

	maxTokens  int           // Bucket capacity
	refillRate time.Duration // Time between token refills

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a rate limiter allowing maxTokens requests per
// refill window.
//
// Example:
//
//	// Allow 10 requests per minute
//	limiter := NewRateLimiter(10, 6*time.Second) // 60s / 10 requests
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:     make(map[string]*bucket),
		maxTokens:   maxTokens,
		refillRate:  refillRate,
		stopCleanup: make(chan struct{}),
	}

	rl.cleanupTicker = time.NewTicker(10 * time.Minute)
	go rl.cleanup()

	return rl
}

// Allow reports whether a request from the given identifier may proceed,
// consuming a token when it does.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	b, exists := rl.buckets[identifier]
	if !exists {
		rl.buckets[identifier] = &bucket{
			tokens:     rl.maxTokens - 1, // This request consumes one
			lastRefill: time.Now(),
		}
		rl.mu.Unlock()
		return true
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := time.Since(b.lastRefill)
	if refill := int(elapsed / rl.refillRate); refill > 0 {
		b.tokens += refill
		if b.tokens > rl.maxTokens {
			b.tokens = rl.maxTokens
		}
		b.lastRefill = time.Now()
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Reset clears the rate limit state for an identifier.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, identifier)
}

// cleanup periodically drops identifiers inactive for more than an hour.
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.mu.Lock()
			now := time.Now()
			for id, b := range rl.buckets {
				b.mu.Lock()
				if now.Sub(b.lastRefill) > time.Hour {
					delete(rl.buckets, id)
				}
				b.mu.Unlock()
			}
			rl.mu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup goroutine and releases resources.
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
	close(rl.stopCleanup)
}
