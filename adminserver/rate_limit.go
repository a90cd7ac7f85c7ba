/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/vasayxtx/go-glob"

	"github.com/acronis/go-cachekit/internal/ratelimit"
	"github.com/acronis/go-cachekit/log"
)

// ErrCodeTooManyRequests is an error code that is used in a response body
// if the request is rejected because the client exceeded the rate limit.
const ErrCodeTooManyRequests = "tooManyRequests"

// rateLimitLogFieldKey is the name of the logged field that contains a key of the rate limiter.
const rateLimitLogFieldKey = "rate_limit_key"

// newRateLimitMiddleware creates a middleware that limits the rate of requests per client IP address.
func newRateLimitMiddleware(cfg RateLimitConfig, logger log.FieldLogger) (func(next http.Handler) http.Handler, error) {
	limiter, err := ratelimit.NewLimiter(cfg.Alg, cfg.Rate, cfg.Burst, cfg.MaxKeys)
	if err != nil {
		return nil, fmt.Errorf("new rate limiter: %w", err)
	}
	excluded := make([]func(string) bool, 0, len(cfg.ExcludedPaths))
	for _, p := range cfg.ExcludedPaths {
		excluded = append(excluded, glob.Compile(p))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			for _, match := range excluded {
				if match(r.URL.Path) {
					next.ServeHTTP(rw, r)
					return
				}
			}

			key := clientIP(r)
			allow, retryAfter, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limiting failed", log.String(rateLimitLogFieldKey, key), log.Error(err))
				respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "Internal error.", logger)
				return
			}
			if !allow {
				logger.Warn("too many admin requests", log.String(rateLimitLogFieldKey, key),
					log.String("user_agent", r.UserAgent()))
				rw.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				respondError(rw, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many requests.", logger)
				return
			}
			next.ServeHTTP(rw, r)
		})
	}, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
