package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "Doctor not found with id abc123", "detail": "..."}
//
// "detail" repeats "message". The admin UI reads error.response.data.detail,
// so both keys are always present; "field" is added for validation errors
// that concern one input.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/medassoc/internal/apperror"
)

// maxJSONBody caps JSON request bodies. Records are a few KB at most.
const maxJSONBody = 1 << 20

const internalErrorMessage = "An internal error occurred"

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Input the error is about, if any
	Detail  string `json:"detail"`          // Same as Message
}

// MessageResponse is the body of delete responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once
// Encode writes, the headers are sent and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation       → 400 validation_error
//	ErrUnsupportedMedia → 400 unsupported_media
//	ErrUnauthorized     → 401 unauthorized (+ WWW-Authenticate: Bearer)
//	ErrForbidden        → 403 forbidden
//	ErrNotFound         → 404 not_found
//	ErrConflict         → 409 conflict
//	anything else       → 500 internal_error, fixed message
//
// errors.As walks the wrap chain, so a service returning
// fmt.Errorf("creating doctor: %w", apperror.ValidationFailed(...)) still maps
// to 400. Untyped errors never reach the client: their text may contain SQL,
// file paths or driver details.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: internalErrorMessage,
			Detail:  internalErrorMessage,
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := appErr.Message

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrUnsupportedMedia):
		status = http.StatusBadRequest
		errorType = "unsupported_media"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
		w.Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	default:
		message = internalErrorMessage
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
		Field:   appErr.Field,
		Detail:  message,
	})
}

// decodeJSON reads one JSON object from the request body into dst.
//
// Unknown keys are ignored: the admin UI sends whole records back on edit,
// including id and created_at, and those must simply not apply.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", fmt.Sprintf("request body must be %d bytes or smaller", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body is empty")
		default:
			return apperror.ValidationFailed("", "Invalid JSON body")
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return v, nil
}
