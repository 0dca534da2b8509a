package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	tlspkg "github.com/vyrodovalexey/bpmnauth/internal/tls"
)

// IntrospectionCheck reports whether the introspection endpoint is
// configured and accepts TCP connections. An unreachable endpoint is
// degraded rather than unhealthy: requests still fail fast with a server
// error instead of hanging.
func IntrospectionCheck(endpoint string, dialTimeout time.Duration) CheckFunc {
	return func(ctx context.Context) Check {
		target := strings.TrimSpace(endpoint)
		if target == "" {
			return Check{Status: StatusUnhealthy, Message: "introspection URL is not configured"}
		}

		address, err := dialAddress(target)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}

		dialer := &net.Dialer{Timeout: dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return Check{Status: StatusDegraded, Message: fmt.Sprintf("introspection endpoint unreachable: %v", err)}
		}
		_ = conn.Close()

		return Check{Status: StatusHealthy, Message: address}
	}
}

// dialAddress returns host:port for an http or https URL.
func dialAddress(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid introspection URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", errors.New("invalid introspection URL: missing host")
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return "", fmt.Errorf("invalid introspection URL: unsupported scheme %q", u.Scheme)
		}
	}

	return net.JoinHostPort(u.Hostname(), port), nil
}

// TrustStoreCheck reports the trust in effect for outbound TLS.
func TrustStoreCheck(trust func() *tlspkg.Trust) CheckFunc {
	return func(context.Context) Check {
		t := trust()
		if t == nil || !t.Applied() {
			return Check{Status: StatusHealthy, Message: "system roots"}
		}
		return Check{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("trust store %s (%d certificates)", t.Path, t.Certificates),
		}
	}
}
