/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-cachekit/log/logtest"
	"github.com/acronis/go-cachekit/testutil"
)

func TestPeriodicWorker(t *testing.T) {
	t.Run("runs until context is canceled, errors don't stop the loop", func(t *testing.T) {
		var runs atomic.Int32
		worker := WorkerFunc(func(ctx context.Context) error {
			if runs.Inc()%2 == 0 {
				return errors.New("sweep failed")
			}
			return nil
		})
		logRecorder := logtest.NewRecorder()
		pw := NewPeriodicWorker(worker, 10*time.Millisecond, logRecorder)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- pw.Run(ctx) }()

		require.Eventually(t, func() bool { return runs.Load() >= 4 }, time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		require.GreaterOrEqual(t, logRecorder.CountEntries("periodically running worker finished with error"), 2)
		_, found := logRecorder.FindEntry("periodic worker stopped")
		require.True(t, found)
	})

	t.Run("stops by ErrPeriodicWorkerStop", func(t *testing.T) {
		var runs atomic.Int32
		worker := WorkerFunc(func(ctx context.Context) error {
			if runs.Inc() == 3 {
				return ErrPeriodicWorkerStop
			}
			return nil
		})
		pw := NewPeriodicWorkerWithOpts(worker, time.Millisecond, logtest.NewRecorder(),
			PeriodicWorkerOpts{InitialDelay: time.Millisecond})
		require.NoError(t, pw.Run(context.Background()))
		require.Equal(t, int32(3), runs.Load())
	})
}

func TestPeriodicWorker_ErrorBackOff(t *testing.T) {
	var runs atomic.Int32
	var runTimes []time.Time
	worker := WorkerFunc(func(ctx context.Context) error {
		runTimes = append(runTimes, time.Now())
		switch runs.Inc() {
		case 1, 2:
			return errors.New("store unavailable")
		case 3:
			return nil
		default:
			return ErrPeriodicWorkerStop
		}
	})
	logRecorder := logtest.NewRecorder()
	pw := NewPeriodicWorkerWithOpts(worker, 50*time.Millisecond, logRecorder, PeriodicWorkerOpts{
		ErrorBackOff: backoff.NewConstantBackOff(time.Millisecond),
	})
	require.NoError(t, pw.Run(context.Background()))
	require.Equal(t, int32(4), runs.Load())

	// failed runs are retried after the backoff delay, the successful one waits the full interval
	require.Less(t, runTimes[2].Sub(runTimes[1]), 50*time.Millisecond)
	require.GreaterOrEqual(t, runTimes[3].Sub(runTimes[2]), 50*time.Millisecond)

	failures := logRecorder.FindAllEntriesByFilter(func(e logtest.RecordedEntry) bool {
		return e.Text == "periodically running worker finished with error"
	})
	require.Len(t, failures, 2)
	_, found := failures[0].FindField("next_run_in")
	require.True(t, found)
}

func TestWorkerUnit(t *testing.T) {
	t.Run("graceful stop", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))
		fatalErr := make(chan error, 1)
		started := make(chan struct{})
		go func() {
			close(started)
			unit.Start(fatalErr)
		}()
		<-started
		require.Eventually(t, unit.started.Load, time.Second, time.Millisecond)
		require.NoError(t, unit.Stop(true))
		require.Len(t, fatalErr, 0)
	})

	t.Run("stop timeout exceeded", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: 20 * time.Millisecond})
		go unit.Start(make(chan error, 1))
		require.Eventually(t, unit.started.Load, time.Second, time.Millisecond)
		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errors.New("cannot open store")
		}))
		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		require.EqualError(t, testutil.RequireErrorInChannel(t, fatalErr, time.Second), "cannot open store")
	})

	t.Run("stop without start", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error { return nil }))
		require.NoError(t, unit.Stop(true))
	})
}
