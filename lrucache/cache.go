/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used for entries added without an explicit TTL when Options.DefaultTTL is not set.
const DefaultTTL = 30 * time.Second

// ExpiredHitPolicy defines how Get treats an entry that is present but already expired.
type ExpiredHitPolicy string

// Expired hit policies.
const (
	// ExpiredHitPolicyReturn returns expired entries as regular hits.
	// Only SweepExpired removes them.
	ExpiredHitPolicyReturn ExpiredHitPolicy = "return"

	// ExpiredHitPolicyMiss makes Get report a CacheMissError for expired entries.
	// The entry itself stays in the cache (and keeps its position) until the next sweep.
	ExpiredHitPolicyMiss ExpiredHitPolicy = "miss"
)

// Fetcher loads the authoritative value for a key from a backing store.
type Fetcher[K comparable, V any] interface {
	Fetch(ctx context.Context, key K) (V, error)
}

// FetcherFunc is an adapter to allow the use of ordinary functions as Fetcher.
type FetcherFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Fetch calls f(ctx, key).
func (f FetcherFunc[K, V]) Fetch(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}

// Options represents options for the cache.
type Options[K comparable] struct {
	// DefaultTTL is the TTL for entries added by Insert and GetOrFetch.
	// If zero, the package-level DefaultTTL is used.
	DefaultTTL time.Duration

	// ExpiredHitPolicy defines whether Get returns expired entries. ExpiredHitPolicyReturn is used by default.
	ExpiredHitPolicy ExpiredHitPolicy

	// Observer receives eviction, removal and expiration events. Can be nil.
	Observer Observer[K]

	// Clock returns the current time. time.Now is used by default.
	Clock func() time.Time
}

// LRUCache represents a bounded LRU cache with per-entry TTL.
// It is safe for concurrent use: a single mutex guards the lookup map and the recency list together.
type LRUCache[K comparable, V any] struct {
	capacity         int
	defaultTTL       time.Duration
	expiredHitPolicy ExpiredHitPolicy
	clock            func() time.Time

	mu      sync.Mutex
	lruList *list.List          // front is the most recently used entry
	cache   map[K]*list.Element // value is a lruList element holding *Entry[K, V]

	observer         Observer[K]
	metricsCollector MetricsCollector
	fetchGroup       singleflight.Group
}

// New creates a new LRUCache with the provided capacity and metrics collector.
func New[K comparable, V any](capacity int, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](capacity, metricsCollector, Options[K]{})
}

// NewWithOpts creates a new LRUCache with the provided capacity, metrics collector, and options.
// Metrics collector can be nil, in this case, metrics will be disabled.
func NewWithOpts[K comparable, V any](
	capacity int, metricsCollector MetricsCollector, opts Options[K],
) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if opts.DefaultTTL < 0 {
		return nil, ErrInvalidTTL
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = DefaultTTL
	}
	switch opts.ExpiredHitPolicy {
	case "":
		opts.ExpiredHitPolicy = ExpiredHitPolicyReturn
	case ExpiredHitPolicyReturn, ExpiredHitPolicyMiss:
	default:
		return nil, fmt.Errorf("unknown expired hit policy %q", opts.ExpiredHitPolicy)
	}
	if opts.Observer == nil {
		opts.Observer = disabledObserver[K]{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}

	return &LRUCache[K, V]{
		capacity:         capacity,
		defaultTTL:       opts.DefaultTTL,
		expiredHitPolicy: opts.ExpiredHitPolicy,
		clock:            opts.Clock,
		lruList:          list.New(),
		cache:            make(map[K]*list.Element, capacity),
		observer:         opts.Observer,
		metricsCollector: metricsCollector,
	}, nil
}

// Get returns a copy of the entry stored by the key and makes it the most recently used one.
// If the key is not present, *CacheMissError is returned and the cache is not changed.
// Expired entries are returned as usual unless ExpiredHitPolicyMiss is configured.
func (c *LRUCache[K, V]) Get(key K) (Entry[K, V], error) {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		c.metricsCollector.IncMisses()
		return Entry[K, V]{}, &CacheMissError{Key: key}
	}
	entry := elem.Value.(*Entry[K, V])
	if c.expiredHitPolicy == ExpiredHitPolicyMiss && entry.IsExpired(now) {
		c.metricsCollector.IncMisses()
		return Entry[K, V]{}, &CacheMissError{Key: key, Expired: true}
	}
	entry.Touch(now)
	c.lruList.MoveToFront(elem)
	c.metricsCollector.IncHits()
	return *entry, nil
}

// Insert adds or refreshes the entry using the default TTL. See InsertWithTTL.
func (c *LRUCache[K, V]) Insert(key K, value V) Entry[K, V] {
	return c.InsertWithTTL(key, value, c.defaultTTL)
}

// InsertWithTTL adds the value to the cache with the provided TTL and makes it the most recently used entry.
// If the key is already present, its value, access time and expiration time are refreshed.
// If the key is new and the cache is full, the least recently used entry is evicted first,
// no matter whether it's expired or not.
// Zero or negative TTL produces an entry that is already expired.
func (c *LRUCache[K, V]) InsertWithTTL(key K, value V, ttl time.Duration) Entry[K, V] {
	now := c.clock()

	c.mu.Lock()
	inserted, evicted := c.insert(key, value, ttl, now)
	size := len(c.cache)
	c.mu.Unlock()

	if evicted != nil {
		c.observer.Observe(Event[K]{Kind: EventEvicted, Key: evicted.Key, Time: now, Size: size})
	}
	return inserted
}

// Remove removes the entry by the key and reports whether it was present.
// Removing an absent key is not an error; it's reported to the observer as EventRemoveNotFound.
func (c *LRUCache[K, V]) Remove(key K) bool {
	now := c.clock()

	c.mu.Lock()
	elem, ok := c.cache[key]
	if ok {
		c.removeElement(elem)
		c.metricsCollector.SetAmount(len(c.cache))
		c.metricsCollector.AddRemovals(1)
	}
	size := len(c.cache)
	c.mu.Unlock()

	kind := EventRemoved
	if !ok {
		kind = EventRemoveNotFound
	}
	c.observer.Observe(Event[K]{Kind: kind, Key: key, Time: now, Size: size})
	return ok
}

// PeekMostRecent returns copies of up to n entries starting from the most recently used one.
// It doesn't change the recency order or access times.
func (c *LRUCache[K, V]) PeekMostRecent(n int) []Entry[K, V] {
	if n <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if n > c.lruList.Len() {
		n = c.lruList.Len()
	}
	res := make([]Entry[K, V], 0, n)
	for elem := c.lruList.Front(); elem != nil && len(res) < n; elem = elem.Next() {
		res = append(res, *elem.Value.(*Entry[K, V]))
	}
	return res
}

// SweepExpired removes all entries that are expired at the given time and returns their keys
// ordered from the most to the least recently used. The relative order of the remaining entries is kept.
func (c *LRUCache[K, V]) SweepExpired(now time.Time) []K {
	c.mu.Lock()
	var expired []K
	for elem := c.lruList.Front(); elem != nil; {
		next := elem.Next()
		if entry := elem.Value.(*Entry[K, V]); entry.IsExpired(now) {
			expired = append(expired, entry.Key)
			c.removeElement(elem)
		}
		elem = next
	}
	size := len(c.cache)
	if len(expired) != 0 {
		c.metricsCollector.SetAmount(size)
		c.metricsCollector.AddExpirations(len(expired))
	}
	c.mu.Unlock()

	for _, key := range expired {
		c.observer.Observe(Event[K]{Kind: EventExpired, Key: key, Time: now, Size: size})
	}
	return expired
}

// SetExpiry overrides the expiration time of the entry without changing its position.
// It returns false if the key is not present.
func (c *LRUCache[K, V]) SetExpiry(key K, expiresAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}
	elem.Value.(*Entry[K, V]).SetExpiry(expiresAt)
	return true
}

// Keys returns all keys ordered from the most to the least recently used.
func (c *LRUCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.lruList.Len())
	for elem := c.lruList.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*Entry[K, V]).Key)
	}
	return keys
}

// Purge clears the cache.
// Removed entries are not reported to the observer and are not counted as evictions.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metricsCollector.SetAmount(0)
	c.cache = make(map[K]*list.Element, c.capacity)
	c.lruList.Init()
}

// Len returns the number of entries in the cache, including expired but not yet swept ones.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Capacity returns the maximum number of entries.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// DefaultTTL returns the TTL used by Insert.
func (c *LRUCache[K, V]) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// GetOrFetch returns the cached value for the key. On a cache miss the value is loaded with fetcher
// (outside the cache lock) and inserted with the default TTL.
// Concurrent misses for the same key share a single fetch.
// The hit result reports whether the value was served from the cache.
func (c *LRUCache[K, V]) GetOrFetch(ctx context.Context, key K, fetcher Fetcher[K, V]) (value V, hit bool, err error) {
	entry, err := c.Get(key)
	if err == nil {
		return entry.Value, true, nil
	}

	res, err, _ := c.fetchGroup.Do(fetchGroupKey(key), func() (interface{}, error) {
		fetched, fetchErr := fetcher.Fetch(ctx, key)
		if fetchErr != nil {
			return nil, fetchErr
		}
		c.Insert(key, fetched)
		return fetched, nil
	})
	if err != nil {
		return value, false, fmt.Errorf("fetch %v: %w", key, err)
	}
	value, _ = res.(V) // res is nil when V is an interface type and the fetched value is nil
	return value, false, nil
}

// RunPeriodicSweep removes expired entries every sweepInterval until ctx is done.
// It's supposed to be run in a separate goroutine.
func (c *LRUCache[K, V]) RunPeriodicSweep(ctx context.Context, sweepInterval time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepExpired(c.clock())
		}
	}
}

func (c *LRUCache[K, V]) insert(key K, value V, ttl time.Duration, now time.Time) (inserted Entry[K, V], evicted *Entry[K, V]) {
	if elem, ok := c.cache[key]; ok {
		entry := elem.Value.(*Entry[K, V])
		entry.refresh(value, ttl, now)
		c.lruList.MoveToFront(elem)
		return *entry, nil
	}

	if len(c.cache) >= c.capacity {
		if evicted = c.removeOldest(); evicted != nil {
			c.metricsCollector.AddEvictions(1)
		}
	}
	entry := NewEntry(key, value, ttl, now)
	c.cache[key] = c.lruList.PushFront(entry)
	c.metricsCollector.SetAmount(len(c.cache))
	return *entry, evicted
}

func (c *LRUCache[K, V]) removeOldest() *Entry[K, V] {
	elem := c.lruList.Back()
	if elem == nil {
		return nil
	}
	return c.removeElement(elem)
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) *Entry[K, V] {
	c.lruList.Remove(elem)
	entry := elem.Value.(*Entry[K, V])
	delete(c.cache, entry.Key)
	return entry
}

func fetchGroupKey(key interface{}) string {
	return fmt.Sprintf("%T:%#v", key, key)
}
