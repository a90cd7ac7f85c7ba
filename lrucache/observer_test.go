/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/log/logtest"
)

func TestLoggingObserver(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	clock := newFakeClock()
	cache, err := NewWithOpts[string, int](2, nil, Options[string]{
		Clock:    clock.Now,
		Observer: NewLoggingObserver[string](logRecorder),
	})
	require.NoError(t, err)

	cache.Insert("key_1", 1)
	cache.InsertWithTTL("key_2", 2, 0)
	cache.Insert("key_3", 3) // evicts key_1
	cache.Remove("key_3")
	cache.Remove("key_3")
	cache.SweepExpired(clock.Now())

	tests := []struct {
		msg   string
		key   string
		level log.Level
		size  int64
	}{
		{msg: "cache entry evicted", key: "key_1", level: log.LevelInfo, size: 2},
		{msg: "cache entry removed", key: "key_3", level: log.LevelInfo, size: 1},
		{msg: "cache entry to remove not found", key: "key_3", level: log.LevelDebug, size: 1},
		{msg: "cache entry expired", key: "key_2", level: log.LevelInfo, size: 0},
	}
	entries := logRecorder.Entries()
	require.Len(t, entries, len(tests))
	for i, tt := range tests {
		entry := entries[i]
		require.Equal(t, tt.msg, entry.Text)
		require.Equal(t, tt.level, entry.Level)

		keyField, found := entry.FindField("key")
		require.True(t, found)
		require.Equal(t, tt.key, string(keyField.Bytes))

		sizeField, found := entry.FindField("cache_size")
		require.True(t, found)
		require.Equal(t, tt.size, sizeField.Int)

		_, found = entry.FindField("at")
		require.True(t, found)
	}
}

func TestMultiObserver(t *testing.T) {
	first, second := &eventRecorder[int]{}, &eventRecorder[int]{}
	var calls []string
	observer := NewMultiObserver[int](
		first,
		nil,
		ObserverFunc[int](func(event Event[int]) { calls = append(calls, event.Kind.String()) }),
		second,
	)
	require.Len(t, observer, 3)

	event := Event[int]{Kind: EventExpired, Key: 10, Time: time.Unix(0, 0), Size: 0}
	observer.Observe(event)
	require.Equal(t, []Event[int]{event}, first.Events())
	require.Equal(t, []Event[int]{event}, second.Events())
	require.Equal(t, []string{"expired"}, calls)
}

func TestEventKind_String(t *testing.T) {
	require.Equal(t, "evicted", EventEvicted.String())
	require.Equal(t, "removed", EventRemoved.String())
	require.Equal(t, "remove_not_found", EventRemoveNotFound.String())
	require.Equal(t, "expired", EventExpired.String())
}
