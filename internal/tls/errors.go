package tls

import (
	"errors"
	"fmt"
)

var (
	// ErrTrustStoreInvalid indicates that the trust store could not be decoded.
	ErrTrustStoreInvalid = errors.New("trust store invalid")

	// ErrTrustStoreEmpty indicates that the trust store holds no certificates.
	ErrTrustStoreEmpty = errors.New("trust store contains no certificates")

	// ErrTrustStorePassword indicates a wrong trust store password.
	ErrTrustStorePassword = errors.New("trust store password incorrect")
)

// TrustStoreError represents a trust store loading failure.
type TrustStoreError struct {
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TrustStoreError) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("trust store error at %s: %s: %v", e.Path, e.Message, e.Cause)
		}
		return fmt.Sprintf("trust store error at %s: %s", e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("trust store error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("trust store error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *TrustStoreError) Unwrap() error {
	return e.Cause
}

// Is matches any *TrustStoreError and delegates to the cause.
func (e *TrustStoreError) Is(target error) bool {
	_, ok := target.(*TrustStoreError)
	return ok || errors.Is(e.Cause, target)
}

func newTrustStoreError(path, message string, cause error) *TrustStoreError {
	return &TrustStoreError{Path: path, Message: message, Cause: cause}
}
