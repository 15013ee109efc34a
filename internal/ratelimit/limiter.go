package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrLimited is returned by TryAcquire callers that want an error value.
var ErrLimited = errors.New("rate limit exceeded")

// Config holds rate limiter configuration.
type Config struct {
	Enabled           bool
	RequestsPerMinute int
	TokensPerMinute   int64
	BurstSize         int
}

// Limiter guards outbound completion calls with a request bucket and a token bucket.
type Limiter struct {
	requests *TokenBucket
	tokens   *TokenBucket
	enabled  atomic.Bool

	total   atomic.Int64
	blocked atomic.Int64
}

// NewLimiter creates a limiter from cfg.
func NewLimiter(cfg Config) *Limiter {
	burst := float64(cfg.BurstSize)
	if burst < 1 {
		burst = 1
	}
	// token bursts are capped at a tenth of the per-minute budget
	tokenBurst := float64(cfg.TokensPerMinute) / 10.0
	if tokenBurst < 1 {
		tokenBurst = 1
	}

	l := &Limiter{
		requests: NewTokenBucket(burst, float64(cfg.RequestsPerMinute)/60.0),
		tokens:   NewTokenBucket(tokenBurst, float64(cfg.TokensPerMinute)/60.0),
	}
	l.enabled.Store(cfg.Enabled)
	return l
}

// Acquire blocks until a request slot and estimatedTokens of capacity are available.
func (l *Limiter) Acquire(ctx context.Context, estimatedTokens int64) error {
	if !l.enabled.Load() {
		return nil
	}
	l.total.Add(1)

	if err := l.requests.Wait(ctx, 1); err != nil {
		l.blocked.Add(1)
		return fmt.Errorf("%w: %v", ErrLimited, err)
	}
	if estimatedTokens > 0 {
		if err := l.tokens.Wait(ctx, float64(estimatedTokens)); err != nil {
			l.requests.Return(1)
			l.blocked.Add(1)
			return fmt.Errorf("%w: %v", ErrLimited, err)
		}
	}
	return nil
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire(estimatedTokens int64) bool {
	if !l.enabled.Load() {
		return true
	}
	l.total.Add(1)

	if !l.requests.TryConsume(1) {
		l.blocked.Add(1)
		return false
	}
	if estimatedTokens > 0 && !l.tokens.TryConsume(float64(estimatedTokens)) {
		l.requests.Return(1)
		l.blocked.Add(1)
		return false
	}
	return true
}

// SetEnabled toggles limiting.
func (l *Limiter) SetEnabled(enabled bool) { l.enabled.Store(enabled) }

// Stats holds limiter statistics.
type Stats struct {
	Enabled           bool
	TotalRequests     int64
	BlockedRequests   int64
	AvailableRequests float64
	AvailableTokens   float64
}

// Stats returns a snapshot of limiter counters.
func (l *Limiter) Stats() Stats {
	return Stats{
		Enabled:           l.enabled.Load(),
		TotalRequests:     l.total.Load(),
		BlockedRequests:   l.blocked.Load(),
		AvailableRequests: l.requests.Available(),
		AvailableTokens:   l.tokens.Available(),
	}
}

// EstimateTokens is a rough token count for text, about four characters per token.
func EstimateTokens(text string) int64 {
	return int64(len(text) / 4)
}
