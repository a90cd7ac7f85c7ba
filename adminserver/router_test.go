/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachekit/datastore"
	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/log/logtest"
	"github.com/acronis/go-cachekit/lrucache"
	"github.com/acronis/go-cachekit/testutil"
)

type routerTest struct {
	cache       *lrucache.LRUCache[string, string]
	clock       *testutil.FakeClock
	router      http.Handler
	logRecorder *logtest.Recorder
	metrics     *RequestMetricsCollector
}

func newRouterTest(t *testing.T, opts RouterOpts) *routerTest {
	t.Helper()
	clock := testutil.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	cache, err := lrucache.NewWithOpts[string, string](3, nil, lrucache.Options[string]{Clock: clock.Now})
	require.NoError(t, err)
	logRecorder := logtest.NewRecorder()
	if opts.RequestMetrics == nil {
		opts.RequestMetrics = NewRequestMetricsCollector("")
	}
	opts.Clock = clock.Now
	return &routerTest{
		cache:       cache,
		clock:       clock,
		router:      NewRouter(cache, logRecorder, opts),
		logRecorder: logRecorder,
		metrics:     opts.RequestMetrics,
	}
}

func (rt *routerTest) do(t *testing.T, method, target string, respData interface{}) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	rt.router.ServeHTTP(resp, httptest.NewRequest(method, target, http.NoBody))
	if respData != nil {
		require.Equal(t, contentTypeAppJSON, resp.Header().Get("Content-Type"))
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), respData))
	}
	return resp
}

func TestRouter_Recent(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{RecentLimit: 2})
	rt.cache.Insert("key_1", "value_1")
	rt.cache.Insert("key_2", "value_2")
	rt.cache.InsertWithTTL("key_3", "value_3", 0)

	var respData RecentResponseData
	resp := rt.do(t, http.MethodGet, "/cache/recent", &respData)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 3, respData.Size)
	require.Equal(t, 3, respData.Capacity)
	require.Len(t, respData.Entries, 2)
	require.Equal(t, "key_3", respData.Entries[0].Key)
	require.True(t, respData.Entries[0].Expired)
	require.Equal(t, "key_2", respData.Entries[1].Key)
	require.False(t, respData.Entries[1].Expired)

	respData = RecentResponseData{}
	rt.do(t, http.MethodGet, "/cache/recent?n=10", &respData)
	require.Len(t, respData.Entries, 3)

	respData = RecentResponseData{}
	rt.do(t, http.MethodGet, "/cache/recent?n=0", &respData)
	require.Empty(t, respData.Entries)

	var errData errorResponseData
	resp = rt.do(t, http.MethodGet, "/cache/recent?n=abc", &errData)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, ErrCodeBadRequest, errData.Err.Code)

	_, found := rt.logRecorder.FindEntry("admin request served")
	require.True(t, found)
}

func TestRouter_RecentMatch(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{})
	rt.cache.Insert("user_1", "alice")
	rt.cache.Insert("order_1", "book")
	rt.cache.Insert("user_2", "bob")

	var respData RecentResponseData
	rt.do(t, http.MethodGet, "/cache/recent?match=user_*", &respData)
	require.Len(t, respData.Entries, 2)
	require.Equal(t, "user_2", respData.Entries[0].Key)
	require.Equal(t, "user_1", respData.Entries[1].Key)
	require.Equal(t, 3, respData.Size)

	respData = RecentResponseData{}
	rt.do(t, http.MethodGet, "/cache/recent?match=user_*&n=1", &respData)
	require.Len(t, respData.Entries, 1)
	require.Equal(t, "user_2", respData.Entries[0].Key)

	respData = RecentResponseData{}
	rt.do(t, http.MethodGet, "/cache/recent?match=session_*", &respData)
	require.Empty(t, respData.Entries)
}

func TestRouter_GetEntry(t *testing.T) {
	t.Run("read-through", func(t *testing.T) {
		store := datastore.NewMemoryStore(datastore.SampleData)
		rt := newRouterTest(t, RouterOpts{Store: store})

		var respData GetEntryResponseData
		resp := rt.do(t, http.MethodGet, "/cache/entries/key_10", &respData)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, GetEntryResponseData{Key: "key_10", Value: "value_10", Hit: false}, respData)
		require.Equal(t, []string{"key_10"}, rt.cache.Keys())

		rt.do(t, http.MethodGet, "/cache/entries/key_10", &respData)
		require.True(t, respData.Hit)

		var errData errorResponseData
		resp = rt.do(t, http.MethodGet, "/cache/entries/key_42", &errData)
		require.Equal(t, http.StatusNotFound, resp.Code)
		require.Equal(t, ErrCodeNotFound, errData.Err.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		rt := newRouterTest(t, RouterOpts{Store: lrucache.FetcherFunc[string, string](
			func(ctx context.Context, key string) (string, error) {
				return "", errors.New("database is locked")
			})})
		var errData errorResponseData
		resp := rt.do(t, http.MethodGet, "/cache/entries/key_1", &errData)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		require.Equal(t, ErrCodeInternal, errData.Err.Code)
		_, found := rt.logRecorder.FindEntry("fetch cache entry")
		require.True(t, found)
	})

	t.Run("cache only", func(t *testing.T) {
		rt := newRouterTest(t, RouterOpts{})
		rt.cache.Insert("key_1", "value_1")

		var respData GetEntryResponseData
		rt.do(t, http.MethodGet, "/cache/entries/key_1", &respData)
		require.Equal(t, GetEntryResponseData{Key: "key_1", Value: "value_1", Hit: true}, respData)

		resp := rt.do(t, http.MethodGet, "/cache/entries/key_2", nil)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestRouter_RemoveEntry(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{})
	rt.cache.Insert("key_2", "value_2")

	resp := rt.do(t, http.MethodDelete, "/cache/entries/key_2", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, 0, rt.cache.Len())

	resp = rt.do(t, http.MethodDelete, "/cache/entries/key_2", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouter_Sweep(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{})
	rt.cache.InsertWithTTL("key_1", "value_1", time.Second)
	rt.cache.InsertWithTTL("key_2", "value_2", time.Minute)
	rt.clock.Advance(time.Second)

	var respData SweepResponseData
	resp := rt.do(t, http.MethodPost, "/cache/sweep", &respData)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, SweepResponseData{Expired: []string{"key_1"}, Size: 1}, respData)

	respData = SweepResponseData{}
	rt.do(t, http.MethodPost, "/cache/sweep", &respData)
	require.Equal(t, SweepResponseData{Expired: []string{}, Size: 1}, respData)

	testutil.RequireSamplesCountInHistogram(t, rt.metrics.Durations.With(prometheus.Labels{
		requestMetricsLabelMethod:       http.MethodPost,
		requestMetricsLabelRoutePattern: "/cache/sweep",
		requestMetricsLabelStatusCode:   "200",
	}).(prometheus.Histogram), 2)
}

func TestRouter_SystemEndpoints(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{
		MetricsHandler: http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			_, _ = rw.Write([]byte("cache_hits_total 1"))
		}),
	})

	resp := rt.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "cache_hits_total 1", resp.Body.String())

	var health healthCheckResponseData
	resp = rt.do(t, http.MethodGet, "/healthz", &health)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, map[string]bool{"cache": true}, health.Components)

	// System endpoints are logged at debug level only.
	for _, entry := range rt.logRecorder.Entries() {
		require.Equal(t, log.LevelDebug, entry.Level)
	}

	var errData errorResponseData
	resp = rt.do(t, http.MethodGet, "/unknown", &errData)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, ErrCodeNotFound, errData.Err.Code)

	resp = rt.do(t, http.MethodPut, "/cache/sweep", &errData)
	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	require.Equal(t, ErrCodeMethodNotAllowed, errData.Err.Code)
}

func TestRouter_HealthCheck(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{HealthCheck: func(ctx context.Context) (HealthCheckResult, error) {
		return HealthCheckResult{"store": HealthCheckStatusFail}, nil
	}})
	var health healthCheckResponseData
	resp := rt.do(t, http.MethodGet, "/healthz", &health)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, map[string]bool{"cache": true, "store": false}, health.Components)

	rt = newRouterTest(t, RouterOpts{HealthCheck: func(ctx context.Context) (HealthCheckResult, error) {
		return nil, errors.New("ping failed")
	}})
	resp = rt.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestRouter_Profiling(t *testing.T) {
	rt := newRouterTest(t, RouterOpts{})
	resp := rt.do(t, http.MethodGet, "/debug/pprof/cmdline", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	rt = newRouterTest(t, RouterOpts{Profiling: true})
	resp = rt.do(t, http.MethodGet, "/debug/pprof/cmdline", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}
