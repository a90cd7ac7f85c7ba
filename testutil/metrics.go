/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertCounterValue checks the current value of counter.
func AssertCounterValue(t assert.TestingT, counter prometheus.Counter, want int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return assertSingleMetric(t, counter, want, "counter value", func(m *dto.Metric) float64 {
		return m.GetCounter().GetValue()
	})
}

// RequireCounterValue is AssertCounterValue that stops the test on failure.
func RequireCounterValue(t require.TestingT, counter prometheus.Counter, want int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !AssertCounterValue(t, counter, want) {
		t.FailNow()
	}
}

// AssertGaugeValue checks the current value of gauge.
func AssertGaugeValue(t assert.TestingT, gauge prometheus.Gauge, want int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return assertSingleMetric(t, gauge, want, "gauge value", func(m *dto.Metric) float64 {
		return m.GetGauge().GetValue()
	})
}

// RequireGaugeValue is AssertGaugeValue that stops the test on failure.
func RequireGaugeValue(t require.TestingT, gauge prometheus.Gauge, want int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !AssertGaugeValue(t, gauge, want) {
		t.FailNow()
	}
}

// AssertSamplesCountInHistogram checks how many observations hist has got.
func AssertSamplesCountInHistogram(t assert.TestingT, hist prometheus.Histogram, wantSamplesCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return assertSingleMetric(t, hist, wantSamplesCount, "histogram samples count", func(m *dto.Metric) float64 {
		return float64(m.GetHistogram().GetSampleCount())
	})
}

// RequireSamplesCountInHistogram is AssertSamplesCountInHistogram that stops the test on failure.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Histogram, wantSamplesCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !AssertSamplesCountInHistogram(t, hist, wantSamplesCount) {
		t.FailNow()
	}
}

// assertSingleMetric collects c through a throwaway pedantic registry,
// so c must produce exactly one metric, and compares value(metric) with want.
func assertSingleMetric(
	t assert.TestingT, c prometheus.Collector, want int, what string, value func(m *dto.Metric) float64,
) bool {
	reg := prometheus.NewPedanticRegistry()
	if !assert.NoError(t, reg.Register(c)) {
		return false
	}
	families, err := reg.Gather()
	if !assert.NoError(t, err) {
		return false
	}
	if !assert.Len(t, families, 1, "metric families") || !assert.Len(t, families[0].GetMetric(), 1, "metrics") {
		return false
	}
	return assert.Equal(t, want, int(value(families[0].GetMetric()[0])), what)
}
