// Package config loads and validates bpmnauth configuration.
//
// Configuration comes from an optional YAML file, with ${VAR} and
// ${VAR:-default} substitution, overlaid by environment variables:
//
//	AUTH_SERVER_URL              introspection endpoint (required)
//	AUTH_CLIENT_ID               optional client credentials for introspection
//	AUTH_CLIENT_SECRET
//	AUTH_INTROSPECTION_TIMEOUT   e.g. "10s"
//	TRUST_STORE                  PKCS#12 or PEM trust store path
//	TRUST_STORE_PASSWORD         trust store password
//	BPMNAUTH_LISTEN_ADDRESS      e.g. ":8080"
//	BPMNAUTH_LOG_LEVEL
//	BPMNAUTH_LOG_FORMAT
//	OTEL_EXPORTER_OTLP_ENDPOINT  enables tracing when set
//
// The resulting Config is read once at startup and never mutated afterwards.
package config
