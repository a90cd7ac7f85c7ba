/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"time"

	"github.com/acronis/go-cachekit/log"
)

// EventKind is a kind of the cache event reported to Observer.
type EventKind int

// Cache event kinds.
const (
	// EventEvicted is reported when the least recently used entry is dropped to free space for a new one.
	EventEvicted EventKind = iota
	// EventRemoved is reported when an entry is removed explicitly.
	EventRemoved
	// EventRemoveNotFound is reported when Remove is called for a key that is not in the cache.
	EventRemoveNotFound
	// EventExpired is reported for every entry reaped by SweepExpired.
	EventExpired
)

func (k EventKind) String() string {
	switch k {
	case EventEvicted:
		return "evicted"
	case EventRemoved:
		return "removed"
	case EventRemoveNotFound:
		return "remove_not_found"
	case EventExpired:
		return "expired"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes a change of the cache contents.
type Event[K comparable] struct {
	Kind EventKind
	Key  K
	Time time.Time
	// Size is the number of entries in the cache right after the operation.
	Size int
}

// Observer receives cache events.
// It is called outside the cache lock, so it may safely call cache methods.
type Observer[K comparable] interface {
	Observe(event Event[K])
}

// ObserverFunc is an adapter to allow the use of ordinary functions as Observer.
type ObserverFunc[K comparable] func(event Event[K])

// Observe calls f(event).
func (f ObserverFunc[K]) Observe(event Event[K]) {
	f(event)
}

// LoggingObserver writes cache events to the logger.
type LoggingObserver[K comparable] struct {
	logger log.FieldLogger
}

// NewLoggingObserver creates a new LoggingObserver.
func NewLoggingObserver[K comparable](logger log.FieldLogger) *LoggingObserver[K] {
	return &LoggingObserver[K]{logger: logger}
}

// Observe logs the event.
// Misses on removal are logged at the debug level since they are not errors.
func (o *LoggingObserver[K]) Observe(event Event[K]) {
	fields := []log.Field{
		log.String("key", fmt.Sprint(event.Key)),
		log.Time("at", event.Time),
		log.Int("cache_size", event.Size),
	}
	switch event.Kind {
	case EventEvicted:
		o.logger.Info("cache entry evicted", fields...)
	case EventRemoved:
		o.logger.Info("cache entry removed", fields...)
	case EventRemoveNotFound:
		o.logger.Debug("cache entry to remove not found", fields...)
	case EventExpired:
		o.logger.Info("cache entry expired", fields...)
	}
}

// MultiObserver fans out events to several observers.
type MultiObserver[K comparable] []Observer[K]

// NewMultiObserver creates an Observer that passes every event to all non-nil observers in order.
func NewMultiObserver[K comparable](observers ...Observer[K]) MultiObserver[K] {
	res := make(MultiObserver[K], 0, len(observers))
	for _, o := range observers {
		if o != nil {
			res = append(res, o)
		}
	}
	return res
}

// Observe passes the event to all observers.
func (mo MultiObserver[K]) Observe(event Event[K]) {
	for _, o := range mo {
		o.Observe(event)
	}
}

type disabledObserver[K comparable] struct{}

func (disabledObserver[K]) Observe(Event[K]) {}
