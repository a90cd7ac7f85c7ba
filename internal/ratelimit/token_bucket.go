/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter implements token bucket rate limiting algorithm.
type TokenBucketLimiter struct {
	limiters *keyedLimiters[*rate.Limiter]
}

// NewTokenBucketLimiter creates a new token bucket rate limiter that tracks up to maxKeys keys.
// The bucket holds maxBurst+1 tokens, so maxBurst extra requests may be served at once.
func NewTokenBucketLimiter(maxRate Rate, maxBurst, maxKeys int) (*TokenBucketLimiter, error) {
	limit := rate.Limit(float64(maxRate.Count) / maxRate.Duration.Seconds())
	limiters, err := newKeyedLimiters(maxKeys, func() *rate.Limiter {
		return rate.NewLimiter(limit, maxBurst+1)
	})
	if err != nil {
		return nil, err
	}
	return &TokenBucketLimiter{limiters: limiters}, nil
}

// Allow implements Limiter.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	res := l.limiters.get(ctx, key).Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return false, delay, nil
	}
	return true, 0, nil
}
