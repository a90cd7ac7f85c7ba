/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/lrucache"
)

// systemEndpoints are not logged at the info level and not counted in request metrics.
var systemEndpoints = []string{"/metrics", "/healthz"}

// Cache is the part of the cache API exposed by the admin server.
// *lrucache.LRUCache[string, string] implements it.
type Cache interface {
	Get(key string) (lrucache.Entry[string, string], error)
	GetOrFetch(ctx context.Context, key string, fetcher lrucache.Fetcher[string, string]) (string, bool, error)
	Remove(key string) bool
	PeekMostRecent(n int) []lrucache.Entry[string, string]
	SweepExpired(now time.Time) []string
	Len() int
	Capacity() int
}

// RouterOpts represents options for creating the admin router.
type RouterOpts struct {
	// Store is used by GET /cache/entries/{key} to load missing entries. If nil, the endpoint doesn't read through.
	Store lrucache.Fetcher[string, string]

	// HealthCheck reports statuses of additional components. The cache itself is always reported.
	HealthCheck HealthCheck

	// MetricsHandler serves /metrics. promhttp.Handler() is used by default.
	MetricsHandler http.Handler

	// RequestMetrics collects HTTP request metrics. Can be nil.
	RequestMetrics *RequestMetricsCollector

	// RateLimit is a middleware rejecting requests of too active clients. Can be nil.
	RateLimit func(next http.Handler) http.Handler

	// Profiling mounts pprof handlers under /debug.
	Profiling bool

	RecentLimit int
	Clock       func() time.Time
}

// NewRouter creates a chi.Router serving the admin API of the cache.
func NewRouter(cache Cache, logger log.FieldLogger, opts RouterOpts) chi.Router {
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(requestLogging(logger))
	router.Use(chimiddleware.Recoverer)
	if opts.RateLimit != nil {
		router.Use(opts.RateLimit)
	}
	if opts.RequestMetrics != nil {
		router.Use(opts.RequestMetrics.Middleware)
	}

	router.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	router.Method(http.MethodGet, "/healthz", newHealthCheckHandler(cache, opts.HealthCheck, logger))

	if opts.Profiling {
		router.Mount("/debug", chimiddleware.Profiler())
	}

	h := &cacheHandler{cache: cache, store: opts.Store, logger: logger, recentLimit: opts.RecentLimit, clock: opts.Clock}
	router.Route("/cache", func(r chi.Router) {
		r.Get("/recent", h.recent)
		r.Post("/sweep", h.sweep)
		r.Get("/entries/{key}", h.getEntry)
		r.Delete("/entries/{key}", h.removeEntry)
	})

	router.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		respondError(rw, http.StatusNotFound, ErrCodeNotFound, "Not found.", logger)
	})
	router.MethodNotAllowed(func(rw http.ResponseWriter, r *http.Request) {
		respondError(rw, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed.", logger)
	})
	return router
}

// requestLogging logs every served request with its status and duration.
func requestLogging(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			wrw := chimiddleware.NewWrapResponseWriter(rw, r.ProtoMajor)
			next.ServeHTTP(wrw, r)

			fields := []log.Field{
				log.String("request_id", chimiddleware.GetReqID(r.Context())),
				log.String("method", r.Method),
				log.String("uri", r.RequestURI),
				log.Int("status", wrw.Status()),
				log.Int("bytes_sent", wrw.BytesWritten()),
				log.Duration("duration", time.Since(startTime)),
			}
			if isSystemEndpoint(r.URL.Path) {
				logger.Debug("admin request served", fields...)
				return
			}
			logger.Info("admin request served", fields...)
		})
	}
}

func isSystemEndpoint(path string) bool {
	for _, e := range systemEndpoints {
		if path == e {
			return true
		}
	}
	return false
}

// getChiRoutePattern extracts chi route pattern from the request.
func getChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	routePath := r.URL.RawPath
	if routePath == "" {
		routePath = r.URL.Path
	}
	tctx := chi.NewRouteContext()
	if !rctx.Routes.Match(tctx, r.Method, routePath) {
		return ""
	}
	return tctx.RoutePattern()
}
