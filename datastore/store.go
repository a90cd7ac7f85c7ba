/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package datastore provides backing stores (the source of truth) for the cache:
// an in-memory map, an SQLite database and a retrying decorator.
// Every Store can be used directly as lrucache.Fetcher[string, string].
package datastore

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned when the key is absent from the store.
var ErrNotFound = errors.New("key not found in data store")

// Store is a read-only view of a key/value source of truth.
type Store interface {
	Fetch(ctx context.Context, key string) (string, error)
}

// SampleData is the dataset the demo scenario runs against.
var SampleData = map[string]string{
	"key_1":  "value_1",
	"key_2":  "value_2",
	"key_3":  "value_3",
	"key_4":  "value_4",
	"key_5":  "value_5",
	"key_6":  "value_5",
	"key_7":  "value_5",
	"key_8":  "value_5",
	"key_9":  "value_5",
	"key_10": "value_10",
}

// SortedKeys returns keys of data in lexical order.
func SortedKeys(data map[string]string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
