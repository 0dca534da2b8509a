package config

import (
	"errors"
	"net/url"
	"strings"
)

// Validate checks the configuration. A missing introspection URL yields
// ErrMissingAuthServerURL on its own so callers can treat it as fatal.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrInvalidConfig
	}

	if strings.TrimSpace(cfg.Introspection.URL) == "" {
		return ErrMissingAuthServerURL
	}

	var errs []error

	if err := validateURL(cfg.Introspection.URL); err != nil {
		errs = append(errs, err)
	}

	if cfg.Introspection.Timeout < 0 {
		errs = append(errs, invalid("introspection.timeout", "must not be negative"))
	}

	breaker := cfg.Introspection.CircuitBreaker
	if breaker.Threshold < 0 || (breaker.Enabled && breaker.Threshold == 0) {
		errs = append(errs, invalid("introspection.circuitBreaker.threshold", "must be positive"))
	}

	if breaker.Timeout < 0 {
		errs = append(errs, invalid("introspection.circuitBreaker.timeout", "must not be negative"))
	}

	if cfg.Server.ReadHeaderTimeout < 0 {
		errs = append(errs, invalid("server.readHeaderTimeout", "must not be negative"))
	}

	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, invalid("server.shutdownTimeout", "must not be negative"))
	}

	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, invalid("logging.format", "must be json or console"))
	}

	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		errs = append(errs, invalid("tracing.samplingRate", "must be between 0 and 1"))
	}

	if cfg.Server.BasePath != "" && !strings.HasPrefix(cfg.Server.BasePath, "/") {
		errs = append(errs, invalid("server.basePath", "must start with /"))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return &ValidationError{Field: "introspection.url", Message: err.Error(), Kind: ErrInvalidAuthServerURL}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{
			Field:   "introspection.url",
			Message: "scheme must be http or https",
			Kind:    ErrInvalidAuthServerURL,
		}
	}
	if u.Host == "" {
		return &ValidationError{Field: "introspection.url", Message: "host is required", Kind: ErrInvalidAuthServerURL}
	}
	return nil
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message, Kind: ErrInvalidConfig}
}
