// Package ratelimit throttles outbound HTTP calls made by the reference
// ingesters (ingest/message, ingest/score) so a misbehaving feed or a tight
// catch-up crawl never hammers the aggregate store.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config controls the sustained request rate and burst allowance.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig mirrors the feed endpoints' documented rate limit.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 100,
		Burst:             200,
	}
}

// Limiter throttles fetches to cfg.RequestsPerSecond, blocking callers in
// Wait rather than rejecting them outright.
type Limiter struct {
	tokens *rate.Limiter
}

// New returns a Limiter configured from cfg. A non-positive rate becomes
// 100 requests per second, and a non-positive burst becomes twice the rate.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 100
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
	}

	return &Limiter{tokens: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.tokens.Wait(ctx)
}
