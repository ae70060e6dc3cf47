package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so the API has one
// success shape per endpoint and one error shape overall:
//
//	{"error": "validation_error", "message": "min_score must be between 1 and 10", "field": "min_score"}
//
// The "error" value is machine-readable and closed: validation_error,
// not_found, upstream_store_error, internal_error.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/profile-dashboard/internal/apperror"
)

// Error kinds.
const (
	kindValidation = "validation_error"
	kindNotFound   = "not_found"
	kindUpstream   = "upstream_store_error"
	kindInternal   = "internal_error"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sends data as JSON with the given status.
// Headers and status go out before the body; nothing can be changed after.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto a status and error kind.
//
// errors.Is walks the whole chain, so a service's
// fmt.Errorf("listing profiles: %w", apperror.Upstream(...)) still lands on
// ErrUpstream.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError

	switch {
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   kindValidation,
			Message: appErr.Message,
			Field:   apperror.FieldOf(err),
		})

	case errors.Is(err, apperror.ErrNotFound) && errors.As(err, &appErr):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: kindNotFound, Message: appErr.Message})

	case errors.Is(err, apperror.ErrUpstream):
		// The driver's message stays in the logs; it can carry hostnames and
		// query fragments.
		logger.Error("document store unavailable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   kindUpstream,
			Message: "the profile store is unavailable, try again later",
		})

	default:
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   kindInternal,
			Message: "an internal error occurred",
		})
	}
}
