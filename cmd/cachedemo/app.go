/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/acronis/go-cachekit/adminserver"
	"github.com/acronis/go-cachekit/datastore"
	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/lrucache"
	"github.com/acronis/go-cachekit/service"
)

const metricsNamespace = "cachedemo"

// healthCheckKey is fetched from the store to check that the store is reachable.
const healthCheckKey = "key_1"

type app struct {
	cfg          *AppConfig
	logger       log.FieldLogger
	closeLogger  func()
	store        *datastore.RetryingStore
	closeStore   func() error
	cache        *lrucache.LRUCache[string, string]
	cacheMetrics *lrucache.PrometheusMetrics
	clock        func() time.Time
}

func newApp(cfg *AppConfig) (*app, error) {
	logger, closeLogger := log.NewLogger(cfg.Log)
	a, err := newAppWithLogger(cfg, logger.With(log.String("run_id", xid.New().String())))
	if err != nil {
		closeLogger()
		return nil, err
	}
	a.closeLogger = closeLogger
	return a, nil
}

func newAppWithLogger(cfg *AppConfig, logger log.FieldLogger) (*app, error) {
	store, closeStore, err := datastore.Open(context.Background(), cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}

	cacheMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: metricsNamespace})
	cache, err := lrucache.NewFromConfig[string, string](cfg.Cache, cacheMetrics,
		lrucache.NewLoggingObserver[string](logger))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		closeLogger:  func() {},
		store:        store,
		closeStore:   closeStore,
		cache:        cache,
		cacheMetrics: cacheMetrics,
		clock:        time.Now,
	}, nil
}

func (a *app) RunScenario() (scenarioResult, error) {
	a.logger.Info("running cache scenario",
		log.Int("capacity", a.cache.Capacity()), log.Duration("default_ttl", a.cache.DefaultTTL()),
		log.String("store", a.cfg.Store.Driver))
	res, err := runScenario(context.Background(), a.cache, a.store, a.clock, a.logger)
	if err != nil {
		return res, err
	}
	a.logger.Info("cache scenario finished",
		log.Int64("store_attempts", a.store.Attempts()), log.Int64("store_failures", a.store.Failures()))
	return res, nil
}

// Serve runs the admin server and the periodic sweep until a shutdown signal is received.
func (a *app) Serve() error {
	unit, err := a.makeServiceUnit()
	if err != nil {
		return err
	}
	return service.New(a.logger, unit).Start()
}

func (a *app) makeServiceUnit() (service.Unit, error) {
	var units []service.Unit

	if a.cfg.Admin.Enabled {
		srv, err := adminserver.New(a.cfg.Admin, a.cache, a.logger, adminserver.Opts{
			RouterOpts: adminserver.RouterOpts{
				Store:          a.store,
				HealthCheck:    a.checkHealth,
				RequestMetrics: adminserver.NewRequestMetricsCollector(metricsNamespace),
				Clock:          a.clock,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create admin server: %w", err)
		}
		units = append(units, &cacheMetricsUnit{Unit: srv, metrics: a.cacheMetrics})
	}

	if interval := time.Duration(a.cfg.Cache.SweepInterval); interval > 0 {
		sweeper := service.NewPeriodicWorker(service.WorkerFunc(a.sweep), interval, a.logger)
		units = append(units, service.NewWorkerUnitWithOpts(sweeper, service.WorkerUnitOpts{
			GracefulStopTimeout: time.Duration(a.cfg.Admin.Timeouts.Shutdown),
		}))
	}

	if len(units) == 0 {
		return nil, errors.New("nothing to serve: admin server is disabled and periodic sweep is off")
	}
	return service.NewCompositeUnit(units...), nil
}

func (a *app) sweep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if swept := a.cache.SweepExpired(a.clock()); len(swept) != 0 {
		a.logger.Info("periodic sweep removed expired entries",
			log.Int("count", len(swept)), log.Int("cache_size", a.cache.Len()))
	}
	return nil
}

func (a *app) checkHealth(ctx context.Context) (adminserver.HealthCheckResult, error) {
	status := adminserver.HealthCheckStatusOK
	if _, err := a.store.Fetch(ctx, healthCheckKey); err != nil && !errors.Is(err, datastore.ErrNotFound) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("data store is unhealthy", log.Error(err))
		status = adminserver.HealthCheckStatusFail
	}
	return adminserver.HealthCheckResult{"store": status}, nil
}

func (a *app) Close() {
	if err := a.closeStore(); err != nil {
		a.logger.Error("close data store", log.Error(err))
	}
	a.closeLogger()
}

// cacheMetricsUnit registers cache metrics together with the metrics of the wrapped unit.
type cacheMetricsUnit struct {
	service.Unit
	metrics *lrucache.PrometheusMetrics
}

func (u *cacheMetricsUnit) MustRegisterMetrics() {
	u.metrics.MustRegister()
	if r, ok := u.Unit.(service.MetricsRegisterer); ok {
		r.MustRegisterMetrics()
	}
}

func (u *cacheMetricsUnit) UnregisterMetrics() {
	u.metrics.Unregister()
	if r, ok := u.Unit.(service.MetricsRegisterer); ok {
		r.UnregisterMetrics()
	}
}
