/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package datastore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a map-backed Store. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates a new MemoryStore holding a copy of data.
func NewMemoryStore(data map[string]string) *MemoryStore {
	s := &MemoryStore{data: make(map[string]string, len(data))}
	for k, v := range data {
		s.data[k] = v
	}
	return s
}

// Fetch returns the value stored by the key or ErrNotFound.
func (s *MemoryStore) Fetch(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return val, nil
}

// Put stores the value by the key.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
