package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTooManyRequests = errors.New("too many requests")
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

// Conflict reports a uniqueness clash. key is whatever identifies the clash
// (an id, an email address).
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with %s", resource, key),
	}
}

// ConflictMessage is Conflict with a caller-chosen message, used where the
// wording is part of the API contract ("Email already registered").
func ConflictMessage(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
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

// Unauthorized covers missing, invalid or expired credentials and failed logins.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// TooManyRequests is returned when a caller exceeds a rate limit (429).
func TooManyRequests(message string) *AppError {
	return &AppError{
		Err:     ErrTooManyRequests,
		Message: message,
	}
}

// NotFoundMessage is NotFound with a caller-chosen message.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}
