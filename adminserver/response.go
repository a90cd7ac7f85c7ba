/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/acronis/go-cachekit/log"
)

const contentTypeAppJSON = "application/json"

// Error codes of the admin API.
const (
	ErrCodeInternal         = "internalError"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"
	ErrCodeBadRequest       = "badRequest"
)

// Error is a JSON error body of the admin API.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type errorResponseData struct {
	Err *Error `json:"error"`
}

func respondJSON(rw http.ResponseWriter, statusCode int, respData interface{}, logger log.FieldLogger) {
	if respData == nil {
		rw.WriteHeader(statusCode)
		return
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(respData); err != nil {
		logger.Error("error while marshaling json for response body", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", contentTypeAppJSON)
	rw.WriteHeader(statusCode)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		logger.Error("error while writing response body", log.Error(err))
	}
}

func respondError(rw http.ResponseWriter, statusCode int, code, message string, logger log.FieldLogger) {
	if statusCode >= http.StatusInternalServerError {
		logger.Error("admin request failed", log.String("error_code", code), log.String("error_message", message))
	}
	respondJSON(rw, statusCode, errorResponseData{&Error{Code: code, Message: message}}, logger)
}
