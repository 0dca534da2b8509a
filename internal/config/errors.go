package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAuthServerURL is returned when the introspection URL is absent.
	// It is fatal: the process must not start serving requests.
	ErrMissingAuthServerURL = errors.New("AUTH_SERVER_URL is not specified in configuration")

	// ErrInvalidAuthServerURL is returned when the introspection URL cannot be used.
	ErrInvalidAuthServerURL = errors.New("invalid AUTH_SERVER_URL")

	// ErrInvalidConfig is returned for any other validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

// Unwrap returns the sentinel kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}
