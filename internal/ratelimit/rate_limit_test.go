/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    Rate
		wantErr string
	}{
		{in: "10/s", want: Rate{Count: 10, Duration: time.Second}},
		{in: "5/m", want: Rate{Count: 5, Duration: time.Minute}},
		{in: " 100 / h", want: Rate{Count: 100, Duration: time.Hour}},
		{in: "10", wantErr: `invalid rate "10", should be in <count>/<unit> format`},
		{in: "0/s", wantErr: `invalid rate "0/s", count should be a positive integer`},
		{in: "1/d", wantErr: `invalid rate "1/d", unit should be one of s, m, h`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRate(tt.in)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewLimiter(t *testing.T) {
	rate := Rate{Count: 1, Duration: time.Second}
	for alg, wantType := range map[string]interface{}{
		AlgLeakyBucket:   &LeakyBucketLimiter{},
		AlgSlidingWindow: &SlidingWindowLimiter{},
		AlgTokenBucket:   &TokenBucketLimiter{},
	} {
		lim, err := NewLimiter(alg, rate, 0, 10)
		require.NoError(t, err)
		require.IsType(t, wantType, lim)
	}

	_, err := NewLimiter("fixedWindow", rate, 0, 10)
	require.EqualError(t, err, `unknown rate limiting algorithm "fixedWindow"`)
}

// LimiterTestSuite runs the common checks against every algorithm.
type LimiterTestSuite struct {
	suite.Suite
	newLimiter func(maxRate Rate, maxKeys int) (Limiter, error)
}

func TestLimiters(t *testing.T) {
	suite.Run(t, &LimiterTestSuite{newLimiter: func(maxRate Rate, maxKeys int) (Limiter, error) {
		return NewLeakyBucketLimiter(maxRate, 1, maxKeys)
	}})
	suite.Run(t, &LimiterTestSuite{newLimiter: func(maxRate Rate, maxKeys int) (Limiter, error) {
		return NewSlidingWindowLimiter(Rate{Count: maxRate.Count + 1, Duration: maxRate.Duration}, maxKeys)
	}})
	suite.Run(t, &LimiterTestSuite{newLimiter: func(maxRate Rate, maxKeys int) (Limiter, error) {
		return NewTokenBucketLimiter(maxRate, 1, maxKeys)
	}})
}

// Every limiter is configured so that exactly 2 requests per key pass within a minute.

func (ts *LimiterTestSuite) TestAllowSequential() {
	limiter, err := ts.newLimiter(Rate{Count: 1, Duration: time.Minute}, 100)
	ts.Require().NoError(err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		allow, retryAfter, err := limiter.Allow(ctx, "client-1")
		ts.Require().NoError(err)
		ts.True(allow, "request %d", i+1)
		ts.Equal(time.Duration(0), retryAfter)
	}

	allow, retryAfter, err := limiter.Allow(ctx, "client-1")
	ts.Require().NoError(err)
	ts.False(allow)
	ts.Greater(retryAfter, time.Duration(0))
	ts.LessOrEqual(retryAfter, time.Minute)
}

func (ts *LimiterTestSuite) TestKeysAreIndependent() {
	limiter, err := ts.newLimiter(Rate{Count: 1, Duration: time.Minute}, 100)
	ts.Require().NoError(err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		allow, _, err := limiter.Allow(ctx, "client-1")
		ts.Require().NoError(err)
		ts.True(allow)
	}
	allow, _, err := limiter.Allow(ctx, "client-1")
	ts.Require().NoError(err)
	ts.False(allow)

	allow, _, err = limiter.Allow(ctx, "client-2")
	ts.Require().NoError(err)
	ts.True(allow)
}

func (ts *LimiterTestSuite) TestManyKeys() {
	limiter, err := ts.newLimiter(Rate{Count: 1, Duration: time.Minute}, 10)
	ts.Require().NoError(err)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		allow, _, err := limiter.Allow(ctx, fmt.Sprintf("client-%d", i))
		ts.Require().NoError(err)
		ts.True(allow)
	}
}
