/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-cachekit/datastore"
	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/lrucache"
)

// scenarioResult is what the demo scenario observed.
type scenarioResult struct {
	RemovedKeyMissed bool
	FetchedValue     string
	FetchedFromCache bool
	Keys             []string
	Swept            []string
}

// runScenario replays the basic cache workflow:
// key_1..key_3 are loaded into the cache, key_2 is removed and looked up again,
// key_10 is read through the store, and finally everything older than one TTL is swept.
func runScenario(
	ctx context.Context, cache *lrucache.LRUCache[string, string], store datastore.Store,
	now func() time.Time, logger log.FieldLogger,
) (scenarioResult, error) {
	var res scenarioResult

	for _, key := range []string{"key_1", "key_2", "key_3"} {
		val, err := store.Fetch(ctx, key)
		if err != nil {
			return res, fmt.Errorf("load %s: %w", key, err)
		}
		cache.Insert(key, val)
	}
	logContents(cache, logger, "cache filled")

	cache.Remove("key_2")
	if _, err := cache.Get("key_2"); err != nil {
		if !lrucache.IsCacheMiss(err) {
			return res, err
		}
		res.RemovedKeyMissed = true
		logger.Info("removed key is not in the cache", log.String("key", "key_2"))
	}

	val, hit, err := cache.GetOrFetch(ctx, "key_10", store)
	if err != nil {
		return res, err
	}
	res.FetchedValue, res.FetchedFromCache = val, hit
	logger.Info("read through the cache", log.String("key", "key_10"), log.String("value", val), log.Bool("hit", hit))

	res.Keys = cache.Keys()
	logContents(cache, logger, "cache contents")

	sweepAt := now().Add(cache.DefaultTTL())
	res.Swept = cache.SweepExpired(sweepAt)
	logger.Info("expired entries swept", log.Int("count", len(res.Swept)), log.Time("at", sweepAt),
		log.Int("cache_size", cache.Len()))

	return res, nil
}

func logContents(cache *lrucache.LRUCache[string, string], logger log.FieldLogger, msg string) {
	logger.Info(msg, log.Strings("keys", cache.Keys()), log.Int("cache_size", cache.Len()))
}
