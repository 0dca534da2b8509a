// Package auth authenticates requests to the process engine REST API with
// OAuth2 bearer tokens checked against an RFC 7662 introspection endpoint.
//
// A TokenValidator runs one linear pass per request:
//
//	header lookup -> token extraction -> introspection call -> decoding -> decision
//
// It returns the username of an active token, or an *AuthError whose Kind is
// one of the sentinel errors below. There is no caching and no retry; every
// call reaches the authorization server.
//
// # Errors
//
//   - ErrMissingAuthorizationHeader: no Authorization header (401)
//   - ErrInvalidAuthorizationHeader: not "Bearer <token>" (401)
//   - ErrInvalidToken: the token is not active (401)
//   - ErrMissingUsernameClaim: active token without a username (500)
//   - ErrIntrospectionServer: transport failure (502, or 503 when the breaker is open)
//   - ErrIntrospectionResponseUnreadable: the answer is not a JSON object (500)
//
// StatusCode maps an error to the HTTP status a host should answer with.
//
// # Usage
//
//	client, err := introspection.NewClient(&introspection.Config{URL: cfg.Introspection.URL})
//	if err != nil {
//	    return err
//	}
//	validator := auth.NewTokenValidator(client, auth.WithLogger(logger))
//
//	username, err := validator.Authenticate(ctx, auth.HTTPHeader(r.Header))
//
// HTTPMiddleware and GinMiddleware wrap the same call for net/http and gin
// handlers and place the resolved Identity in the request context.
package auth
