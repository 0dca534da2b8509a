package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/bpmnauth/internal/auth/introspection"
)

// Sentinel errors for authentication operations.
var (
	// ErrAuthenticationFailed matches every failure caused by the caller's
	// credentials, as opposed to server-side faults.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrMissingAuthorizationHeader indicates that the request has no Authorization header.
	ErrMissingAuthorizationHeader = errors.New("missing authorization header")

	// ErrInvalidAuthorizationHeader indicates that the Authorization header is not "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrInvalidToken indicates that the introspection endpoint reported the token inactive.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingUsernameClaim indicates an active token whose introspection
	// response carries no username.
	ErrMissingUsernameClaim = errors.New("missing username claim")

	// ErrIntrospectionServer indicates a transport failure calling the introspection endpoint.
	ErrIntrospectionServer = errors.New("introspection server error")

	// ErrIntrospectionResponseUnreadable indicates that the introspection
	// response is not a JSON object.
	ErrIntrospectionResponseUnreadable = errors.New("introspection response unreadable")
)

// AuthError is the error returned for every failed authentication.
type AuthError struct {
	// Kind is one of the sentinel errors of this package.
	Kind error

	// Message is a human-readable description.
	Message string

	// Header is the offending Authorization header, if any. It is never
	// included in Error(); use RedactHeader before logging it.
	Header string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("auth error")
	if e.Kind != nil {
		fmt.Fprintf(&b, " (%s)", e.Kind)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Header != "" {
		fmt.Fprintf(&b, " [header %s]", RedactHeader(e.Header))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is matches the error kind, and ErrAuthenticationFailed for credential
// failures. Use errors.As or IsAuthError to test for an *AuthError.
func (e *AuthError) Is(target error) bool {
	if e.Kind == nil {
		return false
	}
	if target == e.Kind {
		return true
	}
	return target == ErrAuthenticationFailed && isCredentialFailure(e.Kind)
}

func isCredentialFailure(kind error) bool {
	switch kind {
	case ErrMissingAuthorizationHeader, ErrInvalidAuthorizationHeader, ErrInvalidToken:
		return true
	default:
		return false
	}
}

// NewAuthError creates a new AuthError.
func NewAuthError(kind error, message string) *AuthError {
	return &AuthError{
		Kind:    kind,
		Message: message,
	}
}

// NewAuthErrorWithCause creates a new AuthError with a cause.
func NewAuthErrorWithCause(kind error, message string, cause error) *AuthError {
	return &AuthError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ErrorKind returns the Kind of an *AuthError in err's chain, or nil.
func ErrorKind(err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return nil
}

// RedactHeader returns the scheme of an Authorization header followed by the
// length of the credential, so the header can be logged without the token.
func RedactHeader(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return "<empty>"
	}

	scheme, rest, found := strings.Cut(trimmed, " ")
	if !found {
		return fmt.Sprintf("<redacted %d bytes>", len(trimmed))
	}
	return fmt.Sprintf("%s <redacted %d bytes>", scheme, len(rest))
}

// StatusCode maps an authentication result to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingAuthorizationHeader),
		errors.Is(err, ErrInvalidAuthorizationHeader),
		errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrIntrospectionServer):
		if errors.Is(err, introspection.ErrCircuitOpen) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Outcome returns the metric label for an authentication result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAuthenticated
	case errors.Is(err, ErrMissingAuthorizationHeader):
		return OutcomeMissingHeader
	case errors.Is(err, ErrInvalidAuthorizationHeader):
		return OutcomeInvalidHeader
	case errors.Is(err, ErrInvalidToken):
		return OutcomeInvalidToken
	case errors.Is(err, ErrMissingUsernameClaim):
		return OutcomeMissingUsername
	case errors.Is(err, ErrIntrospectionServer):
		return OutcomeServerError
	case errors.Is(err, ErrIntrospectionResponseUnreadable):
		return OutcomeUnreadableResponse
	default:
		return OutcomeUnknown
	}
}
