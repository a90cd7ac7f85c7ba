/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry retries operations against the backing store according to a backoff policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable tells whether the error is transient. Non-retryable errors stop retrying immediately.
type IsRetryable func(error) bool

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// Notify is called on every failed attempt that will be retried.
type Notify func(err error, attempt int, delay time.Duration)

// Do calls fn until it succeeds, returns a non-retryable error, the policy gives up or ctx is done.
// isRetryable and notify can be nil (all errors are retried, no notifications).
func Do[T any](ctx context.Context, p Policy, isRetryable IsRetryable, notify Notify, fn func(ctx context.Context) (T, error)) (T, error) {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	attempt := 0
	var notifyFn backoff.Notify
	if notify != nil {
		notifyFn = func(err error, delay time.Duration) {
			notify(err, attempt, delay)
		}
	}
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		res, err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, bctx, notifyFn)
}

// ExponentialBackoffPolicy repeats up to MaxRetries times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      int
}

// NewBackOff implements Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0
	return withMaxRetries(eb, p.MaxRetries)
}

// ConstantBackoffPolicy repeats up to MaxRetries times with a fixed delay.
type ConstantBackoffPolicy struct {
	Interval   time.Duration
	MaxRetries int
}

// NewBackOff implements Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxRetries(backoff.NewConstantBackOff(p.Interval), p.MaxRetries)
}

// withMaxRetries limits b to maxRetries retries; zero means the operation is tried only once.
func withMaxRetries(b backoff.BackOff, maxRetries int) backoff.BackOff {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b = backoff.WithMaxRetries(b, uint64(maxRetries))
	b.Reset()
	return b
}
