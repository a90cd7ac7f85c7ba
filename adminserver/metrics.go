/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	requestMetricsLabelMethod       = "method"
	requestMetricsLabelRoutePattern = "route_pattern"
	requestMetricsLabelStatusCode   = "status_code"
)

// DefaultRequestDurationBuckets are buckets into which observations of serving admin requests are counted.
var DefaultRequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// RequestMetricsCollector collects metrics of admin HTTP requests.
type RequestMetricsCollector struct {
	Durations *prometheus.HistogramVec
	InFlight  prometheus.Gauge
}

// NewRequestMetricsCollector creates a new RequestMetricsCollector.
func NewRequestMetricsCollector(namespace string) *RequestMetricsCollector {
	return &RequestMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admin_http_request_duration_seconds",
			Help:      "A histogram of the admin HTTP request durations.",
			Buckets:   DefaultRequestDurationBuckets,
		}, []string{requestMetricsLabelMethod, requestMetricsLabelRoutePattern, requestMetricsLabelStatusCode}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "admin_http_requests_in_flight",
			Help:      "Current number of admin HTTP requests being served.",
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (c *RequestMetricsCollector) MustRegister() {
	prometheus.MustRegister(c.Durations, c.InFlight)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (c *RequestMetricsCollector) Unregister() {
	prometheus.Unregister(c.Durations)
	prometheus.Unregister(c.InFlight)
}

// Middleware collects metrics for every request except /metrics and /healthz.
func (c *RequestMetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if isSystemEndpoint(r.URL.Path) {
			next.ServeHTTP(rw, r)
			return
		}

		c.InFlight.Inc()
		defer c.InFlight.Dec()

		startTime := time.Now()
		wrw := chimiddleware.NewWrapResponseWriter(rw, r.ProtoMajor)
		next.ServeHTTP(wrw, r)

		status := wrw.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.Durations.With(prometheus.Labels{
			requestMetricsLabelMethod:       r.Method,
			requestMetricsLabelRoutePattern: getChiRoutePattern(r),
			requestMetricsLabelStatusCode:   strconv.Itoa(status),
		}).Observe(time.Since(startTime).Seconds())
	})
}
