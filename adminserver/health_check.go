/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-cachekit/log"
)

// StatusClientClosedRequest is used when the client closed the request before the server could respond.
const StatusClientClosedRequest = 499

// HealthCheckStatus is a resulting status of the health-check.
type HealthCheckStatus int

// Health-check statuses.
const (
	HealthCheckStatusOK HealthCheckStatus = iota
	HealthCheckStatusFail
)

// HealthCheckResult maps component names to their statuses.
type HealthCheckResult = map[string]HealthCheckStatus

// HealthCheck reports statuses of the service components.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

type healthCheckHandler struct {
	cache  Cache
	fn     HealthCheck
	logger log.FieldLogger
}

func newHealthCheckHandler(cache Cache, fn HealthCheck, logger log.FieldLogger) *healthCheckHandler {
	if fn == nil {
		fn = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, ctx.Err()
		}
	}
	return &healthCheckHandler{cache: cache, fn: fn, logger: logger}
}

func (h *healthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	result, err := h.fn(r.Context())
	if err != nil {
		h.logger.Error("error while checking health", log.Error(err))
		if errors.Is(err, context.Canceled) {
			rw.WriteHeader(StatusClientClosedRequest)
			return
		}
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	respData := healthCheckResponseData{Components: map[string]bool{"cache": h.cache.Capacity() > 0}}
	healthy := respData.Components["cache"]
	for name, status := range result {
		respData.Components[name] = status == HealthCheckStatusOK
		if status != HealthCheckStatusOK {
			healthy = false
		}
	}

	respStatus := http.StatusOK
	if !healthy {
		respStatus = http.StatusServiceUnavailable
	}
	respondJSON(rw, respStatus, respData, h.logger)
}
