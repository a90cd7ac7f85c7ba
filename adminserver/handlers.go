/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vasayxtx/go-glob"

	"github.com/acronis/go-cachekit/datastore"
	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/lrucache"
)

// EntryData is a JSON representation of a cache entry.
type EntryData struct {
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Expired      bool      `json:"expired"`
}

// RecentResponseData is a response body of GET /cache/recent.
type RecentResponseData struct {
	Entries  []EntryData `json:"entries"`
	Size     int         `json:"size"`
	Capacity int         `json:"capacity"`
}

// GetEntryResponseData is a response body of GET /cache/entries/{key}.
type GetEntryResponseData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Hit   bool   `json:"hit"`
}

// SweepResponseData is a response body of POST /cache/sweep.
type SweepResponseData struct {
	Expired []string `json:"expired"`
	Size    int      `json:"size"`
}

type cacheHandler struct {
	cache       Cache
	store       lrucache.Fetcher[string, string]
	logger      log.FieldLogger
	recentLimit int
	clock       func() time.Time
}

func (h *cacheHandler) recent(rw http.ResponseWriter, r *http.Request) {
	n := h.recentLimit
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		var err error
		if n, err = strconv.Atoi(nStr); err != nil || n < 0 {
			respondError(rw, http.StatusBadRequest, ErrCodeBadRequest, "Query parameter n must be a non-negative integer.", h.logger)
			return
		}
	}

	now := h.clock()
	var entries []lrucache.Entry[string, string]
	if pattern := r.URL.Query().Get("match"); pattern != "" {
		entries = filterEntries(h.cache.PeekMostRecent(h.cache.Len()), glob.Compile(pattern), n)
	} else {
		entries = h.cache.PeekMostRecent(n)
	}
	resp := RecentResponseData{
		Entries:  make([]EntryData, 0, len(entries)),
		Size:     h.cache.Len(),
		Capacity: h.cache.Capacity(),
	}
	for i := range entries {
		e := &entries[i]
		resp.Entries = append(resp.Entries, EntryData{
			Key:          e.Key,
			Value:        e.Value,
			CreatedAt:    e.CreatedAt,
			LastAccessed: e.LastAccessed,
			ExpiresAt:    e.ExpiresAt,
			Expired:      e.IsExpired(now),
		})
	}
	respondJSON(rw, http.StatusOK, resp, h.logger)
}

func (h *cacheHandler) getEntry(rw http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if h.store == nil {
		entry, err := h.cache.Get(key)
		if err != nil {
			respondError(rw, http.StatusNotFound, ErrCodeNotFound, err.Error(), h.logger)
			return
		}
		respondJSON(rw, http.StatusOK, GetEntryResponseData{Key: key, Value: entry.Value, Hit: true}, h.logger)
		return
	}

	val, hit, err := h.cache.GetOrFetch(r.Context(), key, h.store)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			respondError(rw, http.StatusNotFound, ErrCodeNotFound, err.Error(), h.logger)
			return
		}
		h.logger.Error("fetch cache entry", log.String("key", key), log.Error(err))
		respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "Internal error.", h.logger)
		return
	}
	respondJSON(rw, http.StatusOK, GetEntryResponseData{Key: key, Value: val, Hit: hit}, h.logger)
}

func (h *cacheHandler) removeEntry(rw http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !h.cache.Remove(key) {
		respondError(rw, http.StatusNotFound, ErrCodeNotFound, "Key is not in the cache.", h.logger)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *cacheHandler) sweep(rw http.ResponseWriter, r *http.Request) {
	expired := h.cache.SweepExpired(h.clock())
	if expired == nil {
		expired = []string{}
	}
	respondJSON(rw, http.StatusOK, SweepResponseData{Expired: expired, Size: h.cache.Len()}, h.logger)
}

// filterEntries keeps up to limit entries whose keys match, preserving the order.
func filterEntries(entries []lrucache.Entry[string, string], match func(string) bool, limit int) []lrucache.Entry[string, string] {
	filtered := entries[:0]
	for i := range entries {
		if len(filtered) == limit {
			break
		}
		if match(entries[i].Key) {
			filtered = append(filtered, entries[i])
		}
	}
	return filtered
}
