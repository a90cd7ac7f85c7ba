/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs long-living parts of a cache application (admin server, expiry sweeper)
// as units that are started together and stopped gracefully on OS signals.
package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acronis/go-cachekit/log"
)

// Unit is a long-living part of a service.
type Unit interface {
	// Start blocks while the unit is running. A failure is sent to fatalErr, success sends nothing.
	Start(fatalErr chan<- error)

	// Stop may be called concurrently with Start, and even when Start has never been called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is implemented by units owning Prometheus collectors.
// Service registers them before the start and unregisters after the stop.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}

type Opts struct {
	ShutdownSignals []os.Signal
}

// Service runs a Unit until a shutdown signal, context cancellation or a fatal unit error.
type Service struct {
	Unit    Unit
	Signals chan os.Signal
	Logger  log.FieldLogger
	Opts    Opts
}

// New returns a Service shut down by SIGINT or SIGTERM.
func New(logger log.FieldLogger, unit Unit) *Service {
	return NewWithOpts(logger, unit, Opts{ShutdownSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM}})
}

func NewWithOpts(logger log.FieldLogger, unit Unit, opts Opts) *Service {
	return &Service{Unit: unit, Logger: logger, Opts: opts, Signals: make(chan os.Signal, 1)}
}

// Start is StartContext with the background context.
func (s *Service) Start() error {
	return s.StartContext(context.Background())
}

// StartContext blocks until the unit fails or the service is asked to stop.
// In the latter case the unit is stopped gracefully and its Stop error is returned.
func (s *Service) StartContext(ctx context.Context) error {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}

	signal.Notify(s.Signals, s.Opts.ShutdownSignals...)
	defer signal.Stop(s.Signals)

	fatalErr := make(chan error, 1)
	go s.Unit.Start(fatalErr)

	if err := s.wait(ctx, fatalErr); err != nil {
		s.Logger.Error("service fatal error", log.Error(err))
		return fmt.Errorf("fatal error: %w", err)
	}
	if err := s.Unit.Stop(true); err != nil {
		return fmt.Errorf("stop service gracefully: %w", err)
	}
	s.Logger.Info("service stopped")
	return nil
}

// wait returns the fatal unit error, or nil when a stop is requested.
func (s *Service) wait(ctx context.Context, fatalErr <-chan error) error {
	select {
	case err := <-fatalErr:
		return err
	case <-ctx.Done():
		s.Logger.Info("context is canceled, service will be stopped")
	case sig := <-s.Signals:
		s.Logger.Info("service got signal", log.String("signal", sig.String()))
	}
	return nil
}
