/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "time"

// Entry is a single cached record.
// Entries returned by LRUCache methods are copies, so modifying them doesn't affect the cache.
type Entry[K comparable, V any] struct {
	Key          K
	Value        V
	CreatedAt    time.Time
	LastAccessed time.Time
	ExpiresAt    time.Time
}

// NewEntry creates a new entry that expires after ttl counting from now.
// Zero or negative ttl produces an entry that is already expired.
func NewEntry[K comparable, V any](key K, value V, ttl time.Duration, now time.Time) *Entry[K, V] {
	return &Entry[K, V]{
		Key:          key,
		Value:        value,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Touch marks the entry as accessed at the given time.
func (e *Entry[K, V]) Touch(now time.Time) {
	e.LastAccessed = now
}

// SetExpiry overrides the absolute expiration time of the entry.
func (e *Entry[K, V]) SetExpiry(expiresAt time.Time) {
	e.ExpiresAt = expiresAt
}

// IsExpired reports whether the entry's expiration time is at or before now.
func (e *Entry[K, V]) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// refresh re-arms the entry after an upsert.
func (e *Entry[K, V]) refresh(value V, ttl time.Duration, now time.Time) {
	e.Value = value
	e.Touch(now)
	e.SetExpiry(now.Add(ttl))
}
