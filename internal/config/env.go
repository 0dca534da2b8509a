package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
)

// envOverlay holds the environment variables that override file values.
type envOverlay struct {
	AuthServerURL        string        `env:"AUTH_SERVER_URL"`
	ClientID             string        `env:"AUTH_CLIENT_ID"`
	ClientSecret         string        `env:"AUTH_CLIENT_SECRET"`
	IntrospectionTimeout time.Duration `env:"AUTH_INTROSPECTION_TIMEOUT"`
	TrustStore           string        `env:"TRUST_STORE"`
	TrustStorePassword   string        `env:"TRUST_STORE_PASSWORD"`
	ListenAddress        string        `env:"BPMNAUTH_LISTEN_ADDRESS"`
	LogLevel             string        `env:"BPMNAUTH_LOG_LEVEL"`
	LogFormat            string        `env:"BPMNAUTH_LOG_FORMAT"`
	OTLPEndpoint         string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var env envOverlay
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return err
	}

	setString(&cfg.Introspection.URL, env.AuthServerURL)
	setString(&cfg.Introspection.ClientID, env.ClientID)
	setString(&cfg.Introspection.ClientSecret, env.ClientSecret)
	if env.IntrospectionTimeout > 0 {
		cfg.Introspection.Timeout = Duration(env.IntrospectionTimeout)
	}

	setString(&cfg.TrustStore.Path, env.TrustStore)
	setString(&cfg.TrustStore.Password, env.TrustStorePassword)

	setString(&cfg.Server.Address, env.ListenAddress)
	setString(&cfg.Logging.Level, env.LogLevel)
	setString(&cfg.Logging.Format, env.LogFormat)

	if env.OTLPEndpoint != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.OTLPEndpoint = env.OTLPEndpoint
	}

	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
