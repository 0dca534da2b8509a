package auth

import (
	"context"
	"errors"
	"time"

	"github.com/vyrodovalexey/bpmnauth/internal/auth/introspection"
)

// Identity is the principal resolved from an active token.
type Identity struct {
	// Username is the introspection username member.
	Username string `json:"username"`

	// Subject is the sub member.
	Subject string `json:"sub,omitempty"`

	// ClientID is the client the token was issued to.
	ClientID string `json:"client_id,omitempty"`

	// Issuer is the iss member.
	Issuer string `json:"iss,omitempty"`

	// Audience is the aud member.
	Audience []string `json:"aud,omitempty"`

	// Scopes are the granted OAuth scopes.
	Scopes []string `json:"scopes,omitempty"`

	// TokenType is the token_type member.
	TokenType string `json:"token_type,omitempty"`

	// ExpiresAt is when the token expires, zero if unknown.
	ExpiresAt time.Time `json:"exp,omitzero"`

	// AuthTime is when the token was introspected.
	AuthTime time.Time `json:"auth_time"`
}

// identityFromResponse builds an Identity from an active introspection response.
func identityFromResponse(resp *introspection.Response, now time.Time) *Identity {
	return &Identity{
		Username:  resp.Username,
		Subject:   resp.Subject,
		ClientID:  resp.ClientID,
		Issuer:    resp.Issuer,
		Audience:  resp.Audience,
		Scopes:    resp.Scopes(),
		TokenType: resp.TokenType,
		ExpiresAt: resp.Expiry(),
		AuthTime:  now,
	}
}

// IsExpired returns true if the token had an exp member in the past.
func (i *Identity) IsExpired() bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(i.ExpiresAt)
}

// HasScope checks if the identity has a specific scope.
func (i *Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Context key type for identity.
type identityContextKey struct{}

// ContextWithIdentity adds an identity to the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok
}

// ErrIdentityNotFound is returned when identity is not found in context.
var ErrIdentityNotFound = errors.New("identity not found in context")

// IdentityFromContextOrError extracts a non-nil identity from the context.
func IdentityFromContextOrError(ctx context.Context) (*Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity == nil {
		return nil, ErrIdentityNotFound
	}
	return identity, nil
}
