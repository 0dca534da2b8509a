package auth

import (
	"net/http"
	"strings"
)

// HeaderGetter exposes request headers by exact, case-sensitive name.
type HeaderGetter interface {
	Lookup(name string) (string, bool)
}

// HeaderMap adapts a plain header-name-to-value map.
type HeaderMap map[string]string

// Lookup implements HeaderGetter.
func (m HeaderMap) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// HTTPHeader adapts http.Header. Lookup uses the key as stored, without
// canonicalization; net/http stores inbound header names canonicalized.
type HTTPHeader http.Header

// Lookup implements HeaderGetter. The first value wins.
func (h HTTPHeader) Lookup(name string) (string, bool) {
	values, ok := h[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// AuthorizationHeader returns the raw Authorization header.
func AuthorizationHeader(headers HeaderGetter) (string, error) {
	if headers == nil {
		return "", NewAuthError(ErrMissingAuthorizationHeader, "authorization header is missing")
	}

	value, ok := headers.Lookup(HeaderAuthorization)
	if !ok {
		return "", NewAuthError(ErrMissingAuthorizationHeader, "authorization header is missing")
	}
	return value, nil
}

// ExtractAccessToken returns the token of a "Bearer <token>" header value.
// The scheme is matched case-insensitively and the trimmed value must split
// on single spaces into exactly two segments.
func ExtractAccessToken(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if len(trimmed) < len(BearerScheme) || !strings.EqualFold(trimmed[:len(BearerScheme)], BearerScheme) {
		return "", &AuthError{
			Kind:    ErrInvalidAuthorizationHeader,
			Message: "authorization scheme is not bearer",
			Header:  raw,
		}
	}

	segments := strings.Split(trimmed, " ")
	if len(segments) != 2 {
		return "", &AuthError{
			Kind:    ErrInvalidAuthorizationHeader,
			Message: "authorization header must be \"Bearer <token>\"",
			Header:  raw,
		}
	}

	return segments[1], nil
}
