// Package apperrors defines the error classes shared by repositories, services and handlers.
//
// Lower layers wrap one of these sentinels with context using fmt.Errorf("...: %w", ErrX)
// and handlers map them to HTTP status codes with errors.Is.
package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrValidation is returned for missing or malformed input
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when a uniqueness constraint would be violated
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned for missing, invalid or expired credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated identity is not permitted to act
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")
)

// HTTPStatus maps an error to the status code used in responses.
// Conflicts are reported as 400 to keep the public contract of the API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text of err without the trailing sentinel, suitable for clients
func Message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrConflict, ErrUnauthorized, ErrForbidden, ErrNotFound} {
		if errors.Is(err, sentinel) {
			trimmed := strings.TrimSuffix(msg, ": "+sentinel.Error())
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return msg
}
