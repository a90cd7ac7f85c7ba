/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers shared by tests of the cache packages:
// a controllable clock, error chain assertions and Prometheus metric assertions.
package testutil

type tHelper interface {
	Helper()
}
