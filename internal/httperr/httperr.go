// Package httperr centralizes the error taxonomy and its mapping onto
// HTTP responses, keeping the service layer free of status codes.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// ValidationError carries a user-facing message about malformed input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation creates a ValidationError with the given message.
func Validation(msg string) error {
	return &ValidationError{Msg: msg}
}

// Forbidden creates a Forbidden error carrying a specific user-facing
// message (e.g. quota exhaustion) instead of the bare "forbidden".
func Forbidden(msg string) error {
	return &taggedError{tag: ErrForbidden, msg: msg}
}

type taggedError struct {
	tag error
	msg string
}

func (e *taggedError) Error() string { return e.msg }
func (e *taggedError) Unwrap() error { return e.tag }

// Status maps a service error onto an HTTP status code.
func Status(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-visible error string. Internal errors are
// flattened to a generic message so details never leak to clients.
func Message(err error) string {
	var ve *ValidationError
	var te *taggedError
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case errors.As(err, &te):
		return te.msg
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return "not found"
	default:
		return "internal server error"
	}
}

// Write sends the mapped error as a JSON body with the mapped status.
func Write(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": Message(err)})
}
