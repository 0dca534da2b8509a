// Package observability provides structured logging and distributed tracing
// for bpmnauth.
//
// Logging goes through the Logger interface, backed by zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("token validated", observability.String("username", "alice"))
//
// Tracing uses OpenTelemetry with an optional OTLP gRPC exporter:
//
//	tracer, err := observability.NewTracer(observability.TracerConfig{
//	    ServiceName:  "bpmnauth",
//	    OTLPEndpoint: "otel-collector:4317",
//	    SamplingRate: 1.0,
//	    Enabled:      true,
//	})
//
// Prometheus metrics live next to the code that records them (internal/auth,
// internal/auth/introspection) and are exposed by internal/server.
package observability
