/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acronis/go-cachekit/lrucache"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

// ParseRate parses a rate in "<count>/<unit>" format, where unit is s, m or h (e.g. "10/s").
func ParseRate(s string) (Rate, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return Rate{}, fmt.Errorf("invalid rate %q, should be in <count>/<unit> format", s)
	}
	count, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || count <= 0 {
		return Rate{}, fmt.Errorf("invalid rate %q, count should be a positive integer", s)
	}
	var dur time.Duration
	switch strings.TrimSpace(parts[1]) {
	case "s":
		dur = time.Second
	case "m":
		dur = time.Minute
	case "h":
		dur = time.Hour
	default:
		return Rate{}, fmt.Errorf("invalid rate %q, unit should be one of s, m, h", s)
	}
	return Rate{Count: count, Duration: dur}, nil
}

// Limiter decides whether a request identified by the key may be served now.
type Limiter interface {
	Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error)
}

// Algorithms.
const (
	AlgLeakyBucket   = "leakyBucket"
	AlgSlidingWindow = "slidingWindow"
	AlgTokenBucket   = "tokenBucket"
)

// NewLimiter creates a limiter implementing the given algorithm.
func NewLimiter(alg string, maxRate Rate, maxBurst, maxKeys int) (Limiter, error) {
	switch alg {
	case AlgLeakyBucket, "":
		return NewLeakyBucketLimiter(maxRate, maxBurst, maxKeys)
	case AlgSlidingWindow:
		return NewSlidingWindowLimiter(maxRate, maxKeys)
	case AlgTokenBucket:
		return NewTokenBucketLimiter(maxRate, maxBurst, maxKeys)
	}
	return nil, fmt.Errorf("unknown rate limiting algorithm %q", alg)
}

// keyedLimiters keeps one limiter per key in an LRU cache, creating it on first use.
type keyedLimiters[L any] struct {
	cache   *lrucache.LRUCache[string, L]
	fetcher lrucache.Fetcher[string, L]
}

// limiterTTL keeps entries alive as long as they are used; idle ones are dropped by LRU eviction.
const limiterTTL = 24 * time.Hour

func newKeyedLimiters[L any](maxKeys int, newLimiter func() L) (*keyedLimiters[L], error) {
	cache, err := lrucache.NewWithOpts[string, L](maxKeys, nil, lrucache.Options[string]{DefaultTTL: limiterTTL})
	if err != nil {
		return nil, fmt.Errorf("new LRU cache for limiters: %w", err)
	}
	return &keyedLimiters[L]{
		cache: cache,
		fetcher: lrucache.FetcherFunc[string, L](func(context.Context, string) (L, error) {
			return newLimiter(), nil
		}),
	}, nil
}

func (kl *keyedLimiters[L]) get(ctx context.Context, key string) L {
	lim, _, _ := kl.cache.GetOrFetch(ctx, key, kl.fetcher) // fetcher never fails
	return lim
}
