package memory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced memory does not exist.
	ErrNotFound = errors.New("memory not found")

	// ErrUnauthorized is returned when the caller may not read or change
	// the referenced memory.
	ErrUnauthorized = errors.New("not authorized")
)

// Issue describes one rejected input field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any mutation when the input or the
// memory id is malformed.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", is.Field, is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Message: message}}}
}
