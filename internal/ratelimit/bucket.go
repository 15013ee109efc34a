package ratelimit

import (
	"context"
	"sync"
	"time"
)

// minWait keeps a starved bucket from spinning.
const minWait = 10 * time.Millisecond

// TokenBucket implements a token bucket rate limiter.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket holding at most capacity tokens and
// regaining refillRate tokens per second.
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	b := &TokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
	b.lastRefill = b.now()
	return b
}

func (b *TokenBucket) refill() {
	now := b.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// take consumes n tokens if available, otherwise reports how long to wait.
func (b *TokenBucket) take(n float64) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return true, 0
	}
	if b.refillRate <= 0 {
		return false, time.Second
	}
	wait := time.Duration((n - b.tokens) / b.refillRate * float64(time.Second))
	if wait < minWait {
		wait = minWait
	}
	return false, wait
}

// TryConsume consumes n tokens without blocking.
func (b *TokenBucket) TryConsume(n float64) bool {
	ok, _ := b.take(n)
	return ok
}

// Wait blocks until n tokens are consumed or ctx is done.
// Requests larger than the capacity are clamped to it.
func (b *TokenBucket) Wait(ctx context.Context, n float64) error {
	if n > b.capacity {
		n = b.capacity
	}
	for {
		ok, wait := b.take(n)
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current number of tokens.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// Return gives tokens back, e.g. when a request fails before reaching the provider.
func (b *TokenBucket) Return(n float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += n
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}
