/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit limits how often clients may call the admin API.
//
// Three algorithms are available: leaky bucket (GCRA), sliding window and token bucket.
// Per-key limiters of the sliding window and token bucket algorithms are kept in an LRU cache,
// so the number of tracked clients is bounded.
package ratelimit
