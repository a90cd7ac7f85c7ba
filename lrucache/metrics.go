/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector receives cache statistics. Counters are reported after the cache lock is released.
type MetricsCollector interface {
	SetAmount(int)
	IncHits()
	IncMisses()
	// AddEvictions counts entries pushed out because the cache was full.
	AddEvictions(int)
	// AddExpirations counts entries dropped by the expiry sweep.
	AddExpirations(int)
	// AddRemovals counts entries deleted by Remove.
	AddRemovals(int)
}

// PrometheusMetricsOpts configures PrometheusMetrics.
type PrometheusMetricsOpts struct {
	Namespace   string
	ConstLabels prometheus.Labels

	// CurriedLabelNames are variable labels that must be bound by MustCurryWith
	// before the metrics are passed to a cache, e.g. "cache_name" when several caches share the collectors.
	CurriedLabelNames []string

	// Registerer is used by MustRegister and Unregister. prometheus.DefaultRegisterer if nil.
	Registerer prometheus.Registerer
}

// PrometheusMetrics is a MetricsCollector exporting cache_* metrics.
type PrometheusMetrics struct {
	EntriesAmount    *prometheus.GaugeVec
	HitsTotal        *prometheus.CounterVec
	MissesTotal      *prometheus.CounterVec
	EvictionsTotal   *prometheus.CounterVec
	ExpirationsTotal *prometheus.CounterVec
	RemovalsTotal    *prometheus.CounterVec

	registerer prometheus.Registerer
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics returns PrometheusMetrics without namespace and labels.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts returns PrometheusMetrics configured by opts.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Name: name, Help: help, ConstLabels: opts.ConstLabels,
		}, opts.CurriedLabelNames)
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace, Name: name, Help: help, ConstLabels: opts.ConstLabels,
		}, opts.CurriedLabelNames)
	}
	return &PrometheusMetrics{
		EntriesAmount:    gauge("cache_entries_amount", "Current number of entries in the cache, expired ones included."),
		HitsTotal:        counter("cache_hits_total", "Lookups that returned a value."),
		MissesTotal:      counter("cache_misses_total", "Lookups that found nothing or an expired entry treated as absent."),
		EvictionsTotal:   counter("cache_evictions_total", "Entries evicted as least recently used to make room."),
		ExpirationsTotal: counter("cache_expirations_total", "Expired entries removed by sweep."),
		RemovalsTotal:    counter("cache_removals_total", "Entries removed explicitly."),
		registerer:       reg,
	}
}

// MustCurryWith binds values of the curried labels. It panics on unknown or missing labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		EntriesAmount:    pm.EntriesAmount.MustCurryWith(labels),
		HitsTotal:        pm.HitsTotal.MustCurryWith(labels),
		MissesTotal:      pm.MissesTotal.MustCurryWith(labels),
		EvictionsTotal:   pm.EvictionsTotal.MustCurryWith(labels),
		ExpirationsTotal: pm.ExpirationsTotal.MustCurryWith(labels),
		RemovalsTotal:    pm.RemovalsTotal.MustCurryWith(labels),
		registerer:       pm.registerer,
	}
}

// MustRegister registers all collectors and panics on conflict.
func (pm *PrometheusMetrics) MustRegister() {
	pm.registerer.MustRegister(pm.collectors()...)
}

// Unregister removes all collectors from the registerer.
func (pm *PrometheusMetrics) Unregister() {
	for _, c := range pm.collectors() {
		pm.registerer.Unregister(c)
	}
}

func (pm *PrometheusMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		pm.EntriesAmount, pm.HitsTotal, pm.MissesTotal, pm.EvictionsTotal, pm.ExpirationsTotal, pm.RemovalsTotal,
	}
}

func (pm *PrometheusMetrics) SetAmount(amount int) { pm.EntriesAmount.With(nil).Set(float64(amount)) }
func (pm *PrometheusMetrics) IncHits()             { pm.HitsTotal.With(nil).Inc() }
func (pm *PrometheusMetrics) IncMisses()           { pm.MissesTotal.With(nil).Inc() }
func (pm *PrometheusMetrics) AddEvictions(n int)   { pm.EvictionsTotal.With(nil).Add(float64(n)) }
func (pm *PrometheusMetrics) AddExpirations(n int) { pm.ExpirationsTotal.With(nil).Add(float64(n)) }
func (pm *PrometheusMetrics) AddRemovals(n int)    { pm.RemovalsTotal.With(nil).Add(float64(n)) }

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)      {}
func (disabledMetrics) IncHits()           {}
func (disabledMetrics) IncMisses()         {}
func (disabledMetrics) AddEvictions(int)   {}
func (disabledMetrics) AddExpirations(int) {}
func (disabledMetrics) AddRemovals(int)    {}
