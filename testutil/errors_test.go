/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequireNoErrorInChannel(t *testing.T) {
	ch := make(chan error, 1)

	mockT := &MockT{}
	RequireNoErrorInChannel(mockT, ch)
	require.False(t, mockT.Failed, "empty channel")

	ch <- nil
	RequireNoErrorInChannel(mockT, ch)
	require.False(t, mockT.Failed, "nil error")

	ch <- errors.New("listen tcp: address already in use")
	RequireNoErrorInChannel(mockT, ch)
	require.True(t, mockT.Failed)
}

func TestRequireErrorInChannel(t *testing.T) {
	ch := make(chan error, 1)
	wantErr := errors.New("cannot open store")
	ch <- wantErr

	mockT := &MockT{}
	require.Equal(t, wantErr, RequireErrorInChannel(mockT, ch, time.Second))
	require.False(t, mockT.Failed)

	require.Nil(t, RequireErrorInChannel(mockT, ch, 10*time.Millisecond))
	require.True(t, mockT.Failed)
	require.Contains(t, fmt.Sprint(mockT.Args...), "no error received within 10ms")
}

func TestRequireErrorIsAny(t *testing.T) {
	errNotFound := errors.New("key not found in data store")
	targets := []error{context.Canceled, errNotFound}

	mockT := &MockT{}
	RequireErrorIsAny(mockT, fmt.Errorf("fetch key_42: %w", errNotFound), targets)
	require.False(t, mockT.Failed)

	RequireErrorIsAny(mockT, fmt.Errorf("fetch key_1: %w", errors.New("database is locked")), targets)
	require.True(t, mockT.Failed)
	require.Contains(t, fmt.Sprint(mockT.Args...), `"database is locked"`)

	mockT = &MockT{}
	RequireErrorIsAny(mockT, nil, targets)
	require.True(t, mockT.Failed)
}
