/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"
)

// RequireNoErrorInChannel fails the test if a non-nil error is already waiting in the buffered channel.
// It never blocks.
func RequireNoErrorInChannel(t require.TestingT, c <-chan error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	select {
	case err := <-c:
		require.NoError(t, err, msgAndArgs...)
	default:
	}
}

// RequireErrorInChannel waits up to timeout for an error from the channel and returns it.
// The test fails if nothing (or nil) arrives in time. Units report fatal errors this way.
func RequireErrorInChannel(t require.TestingT, c <-chan error, timeout time.Duration, msgAndArgs ...interface{}) error {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	select {
	case err := <-c:
		require.Error(t, err, msgAndArgs...)
		return err
	case <-time.After(timeout):
		require.FailNow(t, fmt.Sprintf("no error received within %s", timeout), msgAndArgs...)
		return nil
	}
}

// RequireErrorIsAny fails the test unless errors.Is(err, target) holds for one of the targets.
// Useful when either a context error or the last operation error may come first.
func RequireErrorIsAny(t require.TestingT, err error, targets []error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return
		}
	}
	wanted := make([]string, 0, len(targets))
	for _, target := range targets {
		wanted = append(wanted, fmt.Sprintf("%q", target))
	}
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%q", e))
	}
	require.FailNow(t, fmt.Sprintf("none of [%s] is in the error chain [%s]",
		strings.Join(wanted, ", "), strings.Join(chain, " -> ")), msgAndArgs...)
}
