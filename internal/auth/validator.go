package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/bpmnauth/internal/auth/introspection"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
)

// authTracer is the OTEL tracer used for authentication operations.
var authTracer = otel.Tracer("bpmnauth/auth")

// Introspector posts a token to the introspection endpoint and returns the
// raw response body. *introspection.Client implements it.
type Introspector interface {
	Introspect(ctx context.Context, token string) (string, error)
}

// TokenValidator resolves the username behind a bearer token.
// It is immutable after construction and safe for concurrent use.
type TokenValidator struct {
	introspector Introspector
	logger       observability.Logger
	metrics      *Metrics
	now          func() time.Time
}

// Option is a functional option for the TokenValidator.
type Option func(*TokenValidator)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(v *TokenValidator) {
		v.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(v *TokenValidator) {
		v.metrics = metrics
	}
}

// NewTokenValidator creates a TokenValidator backed by introspector.
func NewTokenValidator(introspector Introspector, opts ...Option) (*TokenValidator, error) {
	if introspector == nil {
		return nil, errors.New("introspector is required")
	}

	v := &TokenValidator{
		introspector: introspector,
		logger:       observability.NopLogger(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.logger == nil {
		v.logger = observability.NopLogger()
	}

	return v, nil
}

// Authenticate returns the username of the bearer token in headers.
// On failure the error is an *AuthError; see the package errors.
func (v *TokenValidator) Authenticate(ctx context.Context, headers HeaderGetter) (string, error) {
	identity, err := v.AuthenticateIdentity(ctx, headers)
	if err != nil {
		return "", err
	}
	return identity.Username, nil
}

// AuthenticateIdentity is Authenticate returning the full Identity.
func (v *TokenValidator) AuthenticateIdentity(ctx context.Context, headers HeaderGetter) (*Identity, error) {
	ctx, span := authTracer.Start(ctx, "auth.authenticate",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	start := time.Now()
	identity, err := v.authenticate(ctx, headers)
	outcome := Outcome(err)

	v.metrics.RecordRequest(outcome, time.Since(start))
	span.SetAttributes(attribute.String("auth.outcome", outcome))

	if err != nil {
		span.SetStatus(codes.Error, outcome)
		v.logFailure(ctx, err, outcome)
		return nil, err
	}

	v.logger.WithContext(ctx).Debug("bearer token authenticated",
		observability.String("username", identity.Username),
		observability.String("client_id", identity.ClientID),
	)

	return identity, nil
}

func (v *TokenValidator) authenticate(ctx context.Context, headers HeaderGetter) (*Identity, error) {
	raw, err := AuthorizationHeader(headers)
	if err != nil {
		return nil, err
	}

	token, err := ExtractAccessToken(raw)
	if err != nil {
		return nil, err
	}

	body, err := v.introspector.Introspect(ctx, token)
	if err != nil {
		return nil, NewAuthErrorWithCause(ErrIntrospectionServer, "token introspection call failed", err)
	}

	resp, err := introspection.Decode([]byte(body))
	if err != nil {
		return nil, NewAuthErrorWithCause(ErrIntrospectionResponseUnreadable,
			"introspection response is not a JSON object", err)
	}

	if !resp.IsActive() {
		return nil, NewAuthError(ErrInvalidToken, "token is not active")
	}

	if strings.TrimSpace(resp.Username) == "" {
		return nil, NewAuthError(ErrMissingUsernameClaim, "active token has no username")
	}

	return identityFromResponse(resp, v.now()), nil
}

// logFailure logs credential failures at debug and server-side faults at error.
func (v *TokenValidator) logFailure(ctx context.Context, err error, outcome string) {
	logger := v.logger.WithContext(ctx)
	fields := []observability.Field{
		observability.String("outcome", outcome),
		observability.Error(err),
	}

	if errors.Is(err, ErrAuthenticationFailed) {
		logger.Debug("bearer token rejected", fields...)
		return
	}
	logger.Error("bearer token authentication failed", fields...)
}
