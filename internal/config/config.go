package config

import (
	"strings"
	"time"
)

// Default values.
const (
	DefaultIntrospectionTimeout = 30 * time.Second
	DefaultListenAddress        = ":8080"
	DefaultBasePath             = "/bpmn-rest"
	DefaultShutdownTimeout      = 15 * time.Second
	DefaultReadHeaderTimeout    = 10 * time.Second
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultServiceName          = "bpmnauth"
	DefaultBreakerThreshold     = 5
	DefaultBreakerTimeout       = 30 * time.Second
)

// Config is the root configuration.
type Config struct {
	Introspection IntrospectionConfig `yaml:"introspection" json:"introspection"`
	TrustStore    TrustStoreConfig    `yaml:"trustStore" json:"trustStore"`
	Server        ServerConfig        `yaml:"server" json:"server"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Tracing       TracingConfig       `yaml:"tracing" json:"tracing"`
}

// IntrospectionConfig configures the call to the authorization server.
type IntrospectionConfig struct {
	// URL is the RFC 7662 introspection endpoint. Required.
	URL string `yaml:"url" json:"url"`

	// ClientID and ClientSecret are sent as HTTP Basic credentials when both are set.
	ClientID     string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty" json:"-"`

	// Timeout bounds a single introspection round trip.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// CircuitBreakerConfig configures the optional breaker around introspection.
// An open breaker fails calls immediately; nothing is retried.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// TrustStoreConfig points at the trust material for the introspection TLS client.
type TrustStoreConfig struct {
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
}

// IsSet reports whether both path and password are present.
// A half-configured trust store is ignored.
func (t TrustStoreConfig) IsSet() bool {
	return strings.TrimSpace(t.Path) != "" && strings.TrimSpace(t.Password) != ""
}

// IsPartial reports whether exactly one of path and password is present.
func (t TrustStoreConfig) IsPartial() bool {
	hasPath := strings.TrimSpace(t.Path) != ""
	hasPassword := strings.TrimSpace(t.Password) != ""
	return hasPath != hasPassword
}

// ServerConfig configures the host HTTP server.
type ServerConfig struct {
	Address           string   `yaml:"address,omitempty" json:"address,omitempty"`
	BasePath          string   `yaml:"basePath,omitempty" json:"basePath,omitempty"`
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout,omitempty" json:"readHeaderTimeout,omitempty"`
	ShutdownTimeout   Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// ApplyDefaults fills zero values with defaults. Negative values are kept
// so Validate can reject them.
func (c *Config) ApplyDefaults() {
	c.Introspection.URL = strings.TrimSpace(c.Introspection.URL)
	if c.Introspection.Timeout == 0 {
		c.Introspection.Timeout = Duration(DefaultIntrospectionTimeout)
	}
	if c.Introspection.CircuitBreaker.Threshold == 0 {
		c.Introspection.CircuitBreaker.Threshold = DefaultBreakerThreshold
	}
	if c.Introspection.CircuitBreaker.Timeout == 0 {
		c.Introspection.CircuitBreaker.Timeout = Duration(DefaultBreakerTimeout)
	}

	if c.Server.Address == "" {
		c.Server.Address = DefaultListenAddress
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = Duration(DefaultReadHeaderTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
	if c.Tracing.Enabled && c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
}
