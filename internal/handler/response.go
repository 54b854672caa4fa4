package handler

// RESPONSE HELPERS:
// Every handler writes through writeJSON and writeError so the API has one
// response shape:
//
//	{"code": "not_found", "message": "Request not found"}
//
// Server faults add the raw error text so callers can see what broke:
//
//	{"code": "internal_error", "message": "Failed to create organ", "error": "disk I/O error"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/organlink/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`            // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending input field, when known
	Error   string `json:"error,omitempty"` // Raw error text, server faults only
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body is written; once Encode
// writes, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// Domain errors from the service layer (apperror sentinels, found anywhere
// in the wrap chain) become 400/401/403/404/409/429. Anything else is a
// server fault: 500 with fallback as the message and the raw error text.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, code := statusFor(err)
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Code:    code,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Code:    "internal_error",
		Message: fallback,
		Error:   err.Error(),
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrTooManyRequests):
		return http.StatusTooManyRequests, "too_many_requests"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
