// Package apperror defines the error taxonomy shared by every layer.
//
// Lower layers (stores, services, the upload pipeline) return *AppError values
// that wrap one of the sentinel errors below. Only the HTTP layer turns them
// into status codes, so nothing below the handlers knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("Validation Error")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnsupportedMedia = errors.New("unsupported media")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that resource with the given id does not exist.
// The message keeps the wording the admin UI already shows ("Doctor not found").
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for any authentication failure.
//
// Callers pass one fixed message per flow (login, bearer gate) and never the
// underlying cause: an expired token, a bad signature and an unknown user
// must be indistinguishable to the client.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// UnsupportedMedia reports an upload whose extension is not on the allow-list.
func UnsupportedMedia(ext string) *AppError {
	msg := "file type not allowed"
	if ext != "" {
		msg = fmt.Sprintf("file type %q not allowed", ext)
	}
	return &AppError{
		Err:     ErrUnsupportedMedia,
		Message: msg,
		Field:   "file",
	}
}
