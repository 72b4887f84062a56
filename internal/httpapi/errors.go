package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/internal/broker"
	"inferd/internal/collection"
	"inferd/internal/model"
	"inferd/pkg/types"
)

// Stable error kinds carried in the JSON payload so clients can rehydrate
// the original failure classification without parsing status codes.
const (
	kindInvalidInput         = "invalid_input"
	kindNotRegistered        = "not_registered"
	kindIndexOutOfRange      = "index_out_of_range"
	kindAlreadyInitialized   = "already_initialized"
	kindInitializationFailed = "initialization_failed"
	kindTooBusy              = "too_busy"
	kindInternal             = "internal"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// mapServiceError classifies a service error into a status code and kind.
func mapServiceError(err error) (int, string) {
	switch {
	case broker.IsNotRegistered(err):
		return http.StatusNotFound, kindNotRegistered
	case model.IsInvalidInput(err), broker.IsKindMismatch(err), broker.IsInvalidSpec(err):
		return http.StatusBadRequest, kindInvalidInput
	case collection.IsIndexOutOfRange(err):
		return http.StatusBadRequest, kindIndexOutOfRange
	case model.IsAlreadyInitialized(err):
		return http.StatusConflict, kindAlreadyInitialized
	case model.IsInitialization(err):
		return http.StatusServiceUnavailable, kindInitializationFailed
	case model.IsTooBusy(err):
		return http.StatusTooManyRequests, kindTooBusy
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode(), kindInternal
	}
	return http.StatusInternalServerError, kindInternal
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}
