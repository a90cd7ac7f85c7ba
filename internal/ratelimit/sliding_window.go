/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"time"

	"github.com/RussellLuo/slidingwindow"
)

// SlidingWindowLimiter implements sliding window rate limiting algorithm.
type SlidingWindowLimiter struct {
	limiters *keyedLimiters[*slidingwindow.Limiter]
	maxRate  Rate
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter that tracks up to maxKeys keys.
func NewSlidingWindowLimiter(maxRate Rate, maxKeys int) (*SlidingWindowLimiter, error) {
	limiters, err := newKeyedLimiters(maxKeys, func() *slidingwindow.Limiter {
		lim, _ := slidingwindow.NewLimiter(maxRate.Duration, int64(maxRate.Count),
			func() (slidingwindow.Window, slidingwindow.StopFunc) {
				return slidingwindow.NewLocalWindow()
			})
		return lim
	})
	if err != nil {
		return nil, err
	}
	return &SlidingWindowLimiter{limiters: limiters, maxRate: maxRate}, nil
}

// Allow implements Limiter.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	if l.limiters.get(ctx, key).Allow() {
		return true, 0, nil
	}
	now := time.Now()
	return false, now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration).Sub(now), nil
}
