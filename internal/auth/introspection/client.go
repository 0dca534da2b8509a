package introspection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/bpmnauth/internal/observability"
	tlspkg "github.com/vyrodovalexey/bpmnauth/internal/tls"
)

// maxResponseSize caps the introspection response body.
const maxResponseSize = 1 << 20

// DefaultTimeout bounds a single introspection round trip.
const DefaultTimeout = 30 * time.Second

// introspectionTracer is the OTEL tracer used for introspection calls.
var introspectionTracer = otel.Tracer("bpmnauth/introspection")

// Config holds configuration for the introspection client.
type Config struct {
	// URL is the introspection endpoint.
	URL string

	// ClientID and ClientSecret are sent as HTTP Basic credentials when both are set.
	ClientID     string
	ClientSecret string

	// Timeout is the round trip timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the client built from the process-wide trust.
	HTTPClient *http.Client

	// Logger is the logger to use (optional).
	Logger observability.Logger

	// Metrics receives call metrics (optional).
	Metrics *Metrics

	// Breaker guards the call (optional).
	Breaker *Breaker
}

// Client calls an RFC 7662 introspection endpoint. It is safe for concurrent use.
type Client struct {
	endpoint     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       observability.Logger
	metrics      *Metrics
	breaker      *Breaker
}

// exchange is one completed HTTP round trip.
type exchange struct {
	status int
	body   []byte
}

// NewClient creates a new introspection client. Without an explicit
// HTTPClient it uses the transport of the process-wide trust, so trust must be
// configured before NewClient runs.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	endpoint := strings.TrimSpace(config.URL)
	if endpoint == "" {
		return nil, ErrMissingURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: tlspkg.ClientTransport(),
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Client{
		endpoint:     endpoint,
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		httpClient:   httpClient,
		logger:       logger,
		metrics:      config.Metrics,
		breaker:      config.Breaker,
	}, nil
}

// Endpoint returns the introspection URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Introspect posts token to the endpoint and returns the raw response body.
// The HTTP status is not interpreted. Transport and read failures wrap
// ErrRequestFailed; a rejected call through an open breaker also wraps
// ErrCircuitOpen.
func (c *Client) Introspect(ctx context.Context, token string) (string, error) {
	ctx, span := introspectionTracer.Start(ctx, "introspection.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("introspection.endpoint", c.endpoint)),
	)
	defer span.End()

	start := time.Now()
	result := ResultSuccess

	defer func() {
		c.metrics.RecordRequest(result, time.Since(start))
		span.SetAttributes(attribute.String("introspection.result", result))
	}()

	req, err := c.buildRequest(ctx, token)
	if err != nil {
		result = ResultRequestError
		span.SetStatus(codes.Error, "request build failed")
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	ex, result, err := c.call(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		c.logger.WithContext(ctx).Error("introspection request failed",
			observability.String("endpoint", c.endpoint),
			observability.String("result", result),
			observability.Error(err),
		)
		return "", err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", ex.status))
	c.metrics.RecordStatus(ex.status)

	if ex.status < http.StatusOK || ex.status >= http.StatusMultipleChoices {
		result = ResultHTTPError
		c.logger.WithContext(ctx).Warn("introspection endpoint returned non-success status",
			observability.String("endpoint", c.endpoint),
			observability.Int("status", ex.status),
		)
	}

	return string(ex.body), nil
}

// buildRequest creates the form-encoded introspection request.
func (c *Client) buildRequest(ctx context.Context, token string) (*http.Request, error) {
	form := url.Values{}
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	if c.clientID != "" && c.clientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))
	}

	observability.InjectTraceContext(ctx, req)

	return req, nil
}

// call executes req, through the breaker when one is configured.
func (c *Client) call(req *http.Request) (*exchange, string, error) {
	if c.breaker == nil {
		return c.execute(req)
	}

	result := ResultSuccess
	out, err := c.breaker.Execute(func() (interface{}, error) {
		ex, r, err := c.execute(req)
		result = r
		return ex, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ResultCircuitOpen, fmt.Errorf("%w: %w", ErrRequestFailed, ErrCircuitOpen)
		}
		return nil, result, err
	}

	ex, ok := out.(*exchange)
	if !ok {
		return nil, ResultReadError, ErrRequestFailed
	}
	return ex, result, nil
}

// execute sends the request and reads the capped response body.
func (c *Client) execute(req *http.Request) (*exchange, string, error) {
	resp, err := c.httpClient.Do(req) //nolint:gosec // endpoint comes from operator config
	if err != nil {
		return nil, ResultNetworkError, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ResultReadError, fmt.Errorf("%w: failed to read response: %w", ErrRequestFailed, err)
	}

	return &exchange{status: resp.StatusCode, body: body}, ResultSuccess, nil
}
