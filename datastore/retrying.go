/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package datastore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/retry"
)

// RetryingStore retries transient errors of the underlying store.
// ErrNotFound and context errors are returned without retrying.
type RetryingStore struct {
	store    Store
	policy   retry.Policy
	logger   log.FieldLogger
	attempts atomic.Int64
	failures atomic.Int64
}

// NewRetryingStore wraps store with retries according to policy.
func NewRetryingStore(store Store, policy retry.Policy, logger log.FieldLogger) *RetryingStore {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &RetryingStore{store: store, policy: policy, logger: logger}
}

// Fetch fetches the value from the underlying store, retrying transient errors.
func (s *RetryingStore) Fetch(ctx context.Context, key string) (string, error) {
	val, err := retry.Do(ctx, s.policy, isRetryable,
		func(err error, attempt int, delay time.Duration) {
			s.logger.Warn("fetch from data store failed, retrying",
				log.String("key", key), log.Int("attempt", attempt), log.Duration("delay", delay), log.Error(err))
		},
		func(ctx context.Context) (string, error) {
			s.attempts.Inc()
			return s.store.Fetch(ctx, key)
		})
	if err != nil && isRetryable(err) {
		s.failures.Inc()
	}
	return val, err
}

// Attempts returns the total number of calls made to the underlying store.
func (s *RetryingStore) Attempts() int64 {
	return s.attempts.Load()
}

// Failures returns the number of fetches that failed after all retries.
func (s *RetryingStore) Failures() int64 {
	return s.failures.Load()
}

func isRetryable(err error) bool {
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
