/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity is returned when the cache is created with non-positive capacity.
var ErrInvalidCapacity = errors.New("capacity must be greater than 0")

// ErrInvalidTTL is returned when the cache is created with negative default TTL.
var ErrInvalidTTL = errors.New("default TTL must be greater or equal to 0")

// ErrCacheMiss is a sentinel that every CacheMissError matches with errors.Is.
var ErrCacheMiss = errors.New("cache miss")

// CacheMissError is returned by Get when the key is not present in the cache.
// It is an expected signal for the caller to load the value from the source of truth.
type CacheMissError struct {
	Key interface{}

	// Expired is true when the entry was present but expired and ExpiredHitPolicyMiss is used.
	Expired bool
}

func (e *CacheMissError) Error() string {
	if e.Expired {
		return fmt.Sprintf("cache miss for %v (expired)", e.Key)
	}
	return fmt.Sprintf("cache miss for %v", e.Key)
}

// Is allows matching the error against ErrCacheMiss.
func (e *CacheMissError) Is(target error) bool {
	return target == ErrCacheMiss
}

// IsCacheMiss reports whether err (or any error in its chain) is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
