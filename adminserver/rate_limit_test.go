/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachekit/internal/ratelimit"
	"github.com/acronis/go-cachekit/log/logtest"
)

func TestRateLimitMiddleware(t *testing.T) {
	cfg := RateLimitConfig{
		Alg:           ratelimit.AlgTokenBucket,
		Rate:          ratelimit.Rate{Count: 1, Duration: time.Hour},
		MaxKeys:       10,
		ExcludedPaths: []string{"/healthz", "/cache/entries/*"},
	}
	logRecorder := logtest.NewRecorder()
	mw, err := newRateLimitMiddleware(cfg, logRecorder)
	require.NoError(t, err)
	handler := mw(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}))

	serve := func(remoteAddr, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		req.RemoteAddr = remoteAddr
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	require.Equal(t, http.StatusOK, serve("10.0.0.1:1234", "/cache/recent").Code)

	resp := serve("10.0.0.1:5678", "/cache/recent")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	require.Equal(t, "3600", resp.Header().Get("Retry-After"))
	require.Contains(t, resp.Body.String(), ErrCodeTooManyRequests)

	logEntry, found := logRecorder.FindEntry("too many admin requests")
	require.True(t, found)
	logField, found := logEntry.FindField(rateLimitLogFieldKey)
	require.True(t, found)
	require.Equal(t, "10.0.0.1", string(logField.Bytes))

	// Another client has its own limit.
	require.Equal(t, http.StatusOK, serve("10.0.0.2:1234", "/cache/recent").Code)

	// Excluded paths are never limited.
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, serve("10.0.0.1:1234", "/healthz").Code)
		require.Equal(t, http.StatusOK, serve("10.0.0.1:1234", "/cache/entries/key_1").Code)
	}
}
