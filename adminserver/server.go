/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package adminserver provides an HTTP server exposing the cache for operators:
// Prometheus metrics, health check, recent entries, read-through lookup, removal and manual sweep.
// The server implements service.Unit, so it can be run together with the periodic sweep.
package adminserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/service"
)

// Opts represents options for creating AdminServer.
type Opts struct {
	RouterOpts

	// Listener is a pre-configured listener to use instead of listening on Config.Address.
	Listener net.Listener
}

// AdminServer wraps http.Server serving the admin router.
type AdminServer struct {
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	listener       net.Listener
	port           int32
	httpServerDone atomic.Value
	requestMetrics *RequestMetricsCollector
}

var _ service.Unit = (*AdminServer)(nil)
var _ service.MetricsRegisterer = (*AdminServer)(nil)

// New creates a new AdminServer for the cache.
// Per-client rate limiting is enabled when cfg.RateLimit.Enabled is set and opts.RateLimit is nil.
func New(cfg *Config, cache Cache, logger log.FieldLogger, opts Opts) (*AdminServer, error) { //nolint:gocritic // opts are passed once
	if opts.RecentLimit == 0 {
		opts.RecentLimit = cfg.RecentLimit
	}
	opts.Profiling = opts.Profiling || cfg.Profiling
	if cfg.RateLimit.Enabled && opts.RateLimit == nil {
		var err error
		if opts.RateLimit, err = newRateLimitMiddleware(cfg.RateLimit, logger); err != nil {
			return nil, err
		}
	}
	return &AdminServer{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           NewRouter(cache, logger, opts.RouterOpts),
			WriteTimeout:      time.Duration(cfg.Timeouts.Write),
			ReadTimeout:       time.Duration(cfg.Timeouts.Read),
			ReadHeaderTimeout: time.Duration(cfg.Timeouts.Read),
			IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
		},
		Logger:          logger,
		ShutdownTimeout: time.Duration(cfg.Timeouts.Shutdown),
		listener:        opts.Listener,
		requestMetrics:  opts.RequestMetrics,
	}, nil
}

// Start starts the server in a blocking way.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *AdminServer) Start(fatalError chan<- error) {
	done := make(chan struct{})
	defer close(done)
	s.httpServerDone.Store(done)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting admin HTTP server...")

	var err error
	if s.listener == nil {
		if s.listener, err = net.Listen("tcp", s.HTTPServer.Addr); err != nil {
			logger.Error("admin HTTP server error", log.Error(err))
			fatalError <- err
			return
		}
	}
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		atomic.StoreInt32(&s.port, int32(tcpAddr.Port))
	}

	if err = s.HTTPServer.Serve(s.listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("admin HTTP server closed")
			return
		}
		logger.Error("admin HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops the server (gracefully or not).
func (s *AdminServer) Stop(gracefully bool) error {
	if !gracefully {
		s.Logger.Info("closing admin HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("admin HTTP server closing error", log.Error(err))
			return err
		}
		s.waitDone()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.Logger.Info("shutting down admin HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("admin HTTP server shutting down error", log.Error(err))
		return err
	}
	s.Logger.Info("admin HTTP server shut down")
	s.waitDone()
	return nil
}

func (s *AdminServer) waitDone() {
	if done, ok := s.httpServerDone.Load().(chan struct{}); ok && done != nil {
		<-done
	}
}

// MustRegisterMetrics registers request metrics in Prometheus and panics if any error occurs.
func (s *AdminServer) MustRegisterMetrics() {
	if s.requestMetrics != nil {
		s.requestMetrics.MustRegister()
	}
}

// UnregisterMetrics unregisters request metrics in Prometheus.
func (s *AdminServer) UnregisterMetrics() {
	if s.requestMetrics != nil {
		s.requestMetrics.Unregister()
	}
}

// Port returns the TCP port the server listens on. It's 0 until the server is started.
func (s *AdminServer) Port() int {
	return int(atomic.LoadInt32(&s.port))
}

// URL returns the base URL of the started server.
func (s *AdminServer) URL() string {
	host, _, err := net.SplitHostPort(s.HTTPServer.Addr)
	if err != nil || host == "" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port()))
}
