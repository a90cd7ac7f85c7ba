/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/log/logtest"
)

type testUnit struct {
	startErr     error
	stopErr      error
	stopCalls    atomic.Int32
	stopped      chan struct{}
	registered   atomic.Bool
	unregistered atomic.Bool
}

func newTestUnit(startErr, stopErr error) *testUnit {
	return &testUnit{startErr: startErr, stopErr: stopErr, stopped: make(chan struct{})}
}

func (u *testUnit) Start(fatalErr chan<- error) {
	if u.startErr != nil {
		fatalErr <- u.startErr
		return
	}
	<-u.stopped
}

func (u *testUnit) Stop(bool) error {
	if u.stopCalls.Inc() == 1 {
		close(u.stopped)
	}
	return u.stopErr
}

func (u *testUnit) MustRegisterMetrics() { u.registered.Store(true) }
func (u *testUnit) UnregisterMetrics()   { u.unregistered.Store(true) }

func TestService(t *testing.T) {
	t.Run("stopped by context", func(t *testing.T) {
		unit := newTestUnit(nil, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		logRecorder := logtest.NewRecorder()
		require.NoError(t, New(logRecorder, unit).StartContext(ctx))
		require.Equal(t, int32(1), unit.stopCalls.Load())
		require.Equal(t, []string{"context is canceled, service will be stopped", "service stopped"},
			logRecorder.Messages(log.LevelInfo))
		require.True(t, unit.registered.Load())
		require.True(t, unit.unregistered.Load())
	})

	t.Run("stopped by signal", func(t *testing.T) {
		unit := newTestUnit(nil, nil)
		svc := New(logtest.NewRecorder(), unit)
		svc.Signals <- syscall.SIGTERM
		require.NoError(t, svc.Start())
		require.Equal(t, int32(1), unit.stopCalls.Load())
	})

	t.Run("fatal error", func(t *testing.T) {
		unit := newTestUnit(errors.New("listen: address in use"), nil)
		err := New(logtest.NewRecorder(), unit).Start()
		require.EqualError(t, err, "fatal error: listen: address in use")
	})

	t.Run("stop error", func(t *testing.T) {
		unit := newTestUnit(nil, errors.New("shutdown timeout"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := New(logtest.NewRecorder(), unit).StartContext(ctx)
		require.EqualError(t, err, "stop service gracefully: shutdown timeout")
	})
}

func TestCompositeUnit(t *testing.T) {
	t.Run("start and stop", func(t *testing.T) {
		u1, u2 := newTestUnit(nil, nil), newTestUnit(nil, nil)
		cu := NewCompositeUnit(u1, u2)
		fatalErr := make(chan error, 1)
		done := make(chan struct{})
		go func() {
			cu.Start(fatalErr)
			close(done)
		}()
		require.NoError(t, cu.Stop(true))
		<-done
		require.Len(t, fatalErr, 0)

		cu.MustRegisterMetrics()
		require.True(t, u1.registered.Load())
		require.True(t, u2.registered.Load())
	})

	t.Run("one unit fails", func(t *testing.T) {
		failing := newTestUnit(errors.New("cannot open store"), nil)
		running := newTestUnit(nil, nil)
		cu := NewCompositeUnit(running, failing)
		fatalErr := make(chan error, 1)
		cu.Start(fatalErr)

		var cuErr *CompositeUnitError
		require.ErrorAs(t, <-fatalErr, &cuErr)
		require.Len(t, cuErr.UnitErrors, 1)
		require.EqualError(t, cuErr, "cannot open store")
		require.Equal(t, int32(1), running.stopCalls.Load())
	})

	t.Run("stop errors are collected", func(t *testing.T) {
		cu := NewCompositeUnit(newTestUnit(nil, errors.New("e1")), newTestUnit(nil, nil))
		err := cu.Stop(false)
		var cuErr *CompositeUnitError
		require.ErrorAs(t, err, &cuErr)
		require.Len(t, cuErr.UnitErrors, 1)
	})

	t.Run("errors.Is sees unit errors", func(t *testing.T) {
		cu := NewCompositeUnit(newTestUnit(nil, ErrWorkerUnitStopTimeoutExceeded), newTestUnit(nil, errors.New("e2")))
		err := cu.Stop(true)
		require.ErrorIs(t, err, ErrWorkerUnitStopTimeoutExceeded)
		require.ErrorContains(t, err, "e2")
	})
}
