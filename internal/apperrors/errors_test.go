package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "validation", err: fmt.Errorf("title is required: %w", ErrValidation), expected: http.StatusBadRequest},
		{name: "conflict", err: fmt.Errorf("title already exists: %w", ErrConflict), expected: http.StatusBadRequest},
		{name: "unauthorized", err: fmt.Errorf("wrong password: %w", ErrUnauthorized), expected: http.StatusUnauthorized},
		{name: "forbidden", err: fmt.Errorf("not the author: %w", ErrForbidden), expected: http.StatusForbidden},
		{name: "not found", err: fmt.Errorf("blog not found: %w", ErrNotFound), expected: http.StatusNotFound},
		{name: "double wrapped", err: fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrNotFound)), expected: http.StatusNotFound},
		{name: "unknown", err: errors.New("connection refused"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "wrapped sentinel", err: fmt.Errorf("title is required: %w", ErrValidation), expected: "title is required"},
		{name: "bare sentinel", err: ErrNotFound, expected: "not found"},
		{name: "sentinel in the middle", err: fmt.Errorf("%w: subject missing", ErrUnauthorized), expected: "unauthorized: subject missing"},
		{name: "plain error", err: errors.New("boom"), expected: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Message(tt.err))
		})
	}
}
