package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinIdentityKey is the gin context key holding the *Identity.
const GinIdentityKey = "auth.identity"

// ErrorResponse is the JSON body written for failed authentications.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HTTPMiddleware returns a net/http middleware that authenticates every
// request and stores the Identity in the request context.
func (v *TokenValidator) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := v.AuthenticateIdentity(r.Context(), HTTPHeader(r.Header))
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GinMiddleware returns the gin equivalent of HTTPMiddleware. The Identity is
// stored both in the request context and under GinIdentityKey.
func (v *TokenValidator) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := v.AuthenticateIdentity(c.Request.Context(), HTTPHeader(c.Request.Header))
		if err != nil {
			if challenge := Challenge(err); challenge != "" {
				c.Header(HeaderWWWAuthenticate, challenge)
			}
			c.AbortWithStatusJSON(StatusCode(err), newErrorResponse(err))
			return
		}

		c.Set(GinIdentityKey, identity)
		c.Request = c.Request.WithContext(ContextWithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// WriteError writes the status, challenge and JSON body for err.
func WriteError(w http.ResponseWriter, err error) {
	if challenge := Challenge(err); challenge != "" {
		w.Header().Set(HeaderWWWAuthenticate, challenge)
	}
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(newErrorResponse(err))
}

// Challenge returns the RFC 6750 WWW-Authenticate value for a 401 error, or
// "" for errors that are not credential failures.
func Challenge(err error) string {
	switch {
	case errors.Is(err, ErrMissingAuthorizationHeader):
		return "Bearer"
	case errors.Is(err, ErrInvalidAuthorizationHeader):
		return `Bearer error="invalid_request"`
	case errors.Is(err, ErrInvalidToken):
		return `Bearer error="invalid_token"`
	default:
		return ""
	}
}

func newErrorResponse(err error) ErrorResponse {
	message := "authentication failed"
	if kind := ErrorKind(err); kind != nil {
		message = kind.Error()
	}
	return ErrorResponse{
		Error:   Outcome(err),
		Message: message,
	}
}
