/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a bounded in-memory cache with LRU eviction, per-entry TTL,
// explicit expiry sweeping, pluggable eviction/removal observers, and Prometheus metrics.
//
// Recency and expiry are independent: Get does not hide expired entries unless
// ExpiredHitPolicyMiss is configured, and capacity eviction always removes the least
// recently used entry regardless of its expiry. Expired entries are reaped by SweepExpired
// (or RunPeriodicSweep).
package lrucache
