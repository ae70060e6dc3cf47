// Package apperror defines the error kinds the dashboard distinguishes.
//
// Every layer returns plain errors; the kind travels in the chain and is
// recovered with errors.Is. Only the HTTP layer turns kinds into statuses:
//
//	ErrValidation → 400, ErrNotFound → 404, ErrUpstream → 503, anything else → 500
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrUpstream   = errors.New("upstream store error")
)

type AppError struct {
	Err     error  // kind sentinel
	Message string // safe to show to API clients, except for ErrUpstream
	Field   string // offending request parameter, for validation errors
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes only the kind. An upstream driver error is kept in Message,
// so callers cannot branch on driver internals.
func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Upstream marks a failure of the document store itself (unreachable, query
// rejected, decode failure). op names the operation, e.g. "sqlite: listing profiles".
//
// HTTP handlers map ErrUpstream to 503 and never echo Message to the client.
func Upstream(op string, err error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}

// FieldOf returns the offending field of the first AppError in err's chain,
// or "".
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
