/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachekit/testutil"
)

func TestPrometheusMetrics_CurriedAndCustomRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{
		Namespace:         "cachekit",
		CurriedLabelNames: []string{"cache_name"},
		Registerer:        reg,
	})
	metrics.MustRegister()

	users := metrics.MustCurryWith(prometheus.Labels{"cache_name": "users"})
	sessions := metrics.MustCurryWith(prometheus.Labels{"cache_name": "sessions"})

	usersCache, err := New[string, int](10, users)
	require.NoError(t, err)
	sessionsCache, err := New[string, int](10, sessions)
	require.NoError(t, err)

	usersCache.Insert("u1", 1)
	_, _ = usersCache.Get("u1")
	_, _ = sessionsCache.Get("s1")

	testutil.RequireCounterValue(t, users.HitsTotal.With(nil), 1)
	testutil.RequireCounterValue(t, sessions.HitsTotal.With(nil), 0)
	testutil.RequireCounterValue(t, sessions.MissesTotal.With(nil), 1)
	testutil.RequireGaugeValue(t, users.EntriesAmount.With(nil), 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	require.Contains(t, names, "cachekit_cache_hits_total")
	require.Contains(t, names, "cachekit_cache_misses_total")

	metrics.Unregister()
	require.NotPanics(t, metrics.MustRegister)
}
