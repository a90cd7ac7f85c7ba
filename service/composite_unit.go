/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"strings"
	"sync"
)

// CompositeUnit runs several units as one, e.g. the admin server together with the periodic sweeper.
type CompositeUnit struct {
	Units []Unit
}

var (
	_ Unit              = (*CompositeUnit)(nil)
	_ MetricsRegisterer = (*CompositeUnit)(nil)
)

// NewCompositeUnit returns a CompositeUnit of units.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{Units: units}
}

// Start starts all units concurrently and returns when every unit's Start has returned.
// The first fatal error makes the remaining units stop non-gracefully.
// All start and stop errors are then reported to fatalErr as one CompositeUnitError.
func (cu *CompositeUnit) Start(fatalErr chan<- error) {
	var (
		mu       sync.Mutex
		errs     []error
		failed   = make(chan struct{})
		failOnce sync.Once
	)
	allDone := make(chan struct{})
	go func() {
		defer close(allDone)
		cu.forEach(func(u Unit) {
			unitErr := make(chan error, 1)
			u.Start(unitErr)
			if len(unitErr) == 0 {
				return
			}
			mu.Lock()
			errs = append(errs, <-unitErr)
			mu.Unlock()
			failOnce.Do(func() { close(failed) })
		})
	}()

	select {
	case <-failed:
	case <-allDone:
		if len(errs) == 0 {
			return
		}
	}

	stopErr := cu.Stop(false)
	<-allDone
	if stopErr != nil {
		errs = append(errs, stopErr.(*CompositeUnitError).UnitErrors...)
	}
	fatalErr <- &CompositeUnitError{UnitErrors: errs}
}

// Stop stops all units concurrently. Non-nil results are returned as a CompositeUnitError.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	var mu sync.Mutex
	var errs []error
	cu.forEach(func(u Unit) {
		if err := u.Stop(gracefully); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	})
	if len(errs) == 0 {
		return nil
	}
	return &CompositeUnitError{UnitErrors: errs}
}

func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}

// forEach calls fn for every unit in its own goroutine and waits for all of them.
func (cu *CompositeUnit) forEach(fn func(u Unit)) {
	var wg sync.WaitGroup
	for _, u := range cu.Units {
		u := u
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(u)
		}()
	}
	wg.Wait()
}

// CompositeUnitError joins errors of individual units.
// errors.Is and errors.As look through all of them.
type CompositeUnitError struct {
	UnitErrors []error
}

func (cue *CompositeUnitError) Error() string {
	msgs := make([]string, len(cue.UnitErrors))
	for i, err := range cue.UnitErrors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (cue *CompositeUnitError) Unwrap() []error { return cue.UnitErrors }
