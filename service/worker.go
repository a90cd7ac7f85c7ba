/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-cachekit/log"
)

// ErrPeriodicWorkerStop is returned by a worker to end the PeriodicWorker loop without error.
var ErrPeriodicWorkerStop = errors.New("stop periodic worker")

// Worker does a piece of work, either once or until ctx is done.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc lets a plain function be a Worker.
type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error { return f(ctx) }

// PeriodicWorkerOpts are optional settings of PeriodicWorker.
type PeriodicWorkerOpts struct {
	// InitialDelay is waited before the first run.
	InitialDelay time.Duration

	// ErrorBackOff, if set, replaces the interval after failed runs, so a broken
	// dependency is not hammered. It is reset after the first successful run.
	// backoff.Stop from it means the regular interval.
	ErrorBackOff backoff.BackOff
}

// PeriodicWorker runs a Worker again and again with a pause between the end
// of one run and the start of the next (e.g. the cache expiry sweep).
type PeriodicWorker struct {
	worker   Worker
	logger   log.FieldLogger
	interval time.Duration
	opts     PeriodicWorkerOpts
}

// NewPeriodicWorker returns a PeriodicWorker that makes the first run immediately.
func NewPeriodicWorker(worker Worker, interval time.Duration, logger log.FieldLogger) *PeriodicWorker {
	return NewPeriodicWorkerWithOpts(worker, interval, logger, PeriodicWorkerOpts{})
}

func NewPeriodicWorkerWithOpts(
	worker Worker, interval time.Duration, logger log.FieldLogger, opts PeriodicWorkerOpts,
) *PeriodicWorker {
	return &PeriodicWorker{worker: worker, logger: logger, interval: interval, opts: opts}
}

// Run loops until ctx is done or the worker returns ErrPeriodicWorkerStop, and then returns nil.
// Any other worker error is logged and the loop goes on.
// A panic in the worker is logged with the stack and re-raised.
func (pw *PeriodicWorker) Run(ctx context.Context) error {
	defer pw.logPanic()

	pw.logger.Info("running periodic worker...",
		log.Duration("initial_delay", pw.opts.InitialDelay), log.Duration("interval_delay", pw.interval))

	timer := time.NewTimer(pw.opts.InitialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			pw.logger.Info("periodic worker stopped")
			return nil
		case <-timer.C:
		}

		err := pw.worker.Run(ctx)
		if errors.Is(err, ErrPeriodicWorkerStop) {
			pw.logger.Info("periodic worker stopped by the underlying worker")
			return nil
		}
		timer.Reset(pw.nextDelay(err))
	}
}

func (pw *PeriodicWorker) nextDelay(runErr error) time.Duration {
	if runErr == nil {
		if pw.opts.ErrorBackOff != nil {
			pw.opts.ErrorBackOff.Reset()
		}
		return pw.interval
	}
	if pw.opts.ErrorBackOff == nil {
		pw.logger.Error("periodically running worker finished with error", log.Error(runErr))
		return pw.interval
	}
	delay := pw.opts.ErrorBackOff.NextBackOff()
	if delay == backoff.Stop {
		delay = pw.interval
	}
	pw.logger.Error("periodically running worker finished with error",
		log.Error(runErr), log.Duration("next_run_in", delay))
	return delay
}

func (pw *PeriodicWorker) logPanic() {
	p := recover()
	if p == nil {
		return
	}
	stack := make([]byte, 8<<10)
	stack = stack[:runtime.Stack(stack, false)]
	pw.logger.Error(fmt.Sprintf("panic: %+v", p), log.Bytes("stack", stack))
	panic(p)
}
