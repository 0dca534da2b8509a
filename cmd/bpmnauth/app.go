package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vyrodovalexey/bpmnauth/internal/auth"
	"github.com/vyrodovalexey/bpmnauth/internal/auth/introspection"
	"github.com/vyrodovalexey/bpmnauth/internal/config"
	"github.com/vyrodovalexey/bpmnauth/internal/health"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
	"github.com/vyrodovalexey/bpmnauth/internal/server"
	tlspkg "github.com/vyrodovalexey/bpmnauth/internal/tls"
)

// healthDialTimeout bounds the readiness probe's TCP dial to the
// introspection endpoint.
const healthDialTimeout = 2 * time.Second

// application holds all application components.
type application struct {
	config   *config.Config
	server   *server.Server
	tracer   *observability.Tracer
	registry *prometheus.Registry
	logger   observability.Logger
}

// newApplication wires trust, tracing, metrics, the validator, health checks
// and the host server from cfg.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	trust, err := tlspkg.ConfigureTrust(cfg.TrustStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure trust store: %w", err)
	}
	logger.Info("trust configured",
		observability.Bool("custom", trust.Applied()),
		observability.Int("certificates", trust.Certificates),
	)

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, err
	}

	registry := newRegistry()

	validator, err := newValidator(cfg, logger, registry)
	if err != nil {
		return nil, err
	}

	checker := health.NewChecker(version,
		health.WithMetrics(health.NewMetrics(metricsNamespace, registry)),
	)
	checker.RegisterCheck("introspection",
		health.IntrospectionCheck(cfg.Introspection.URL, healthDialTimeout))
	checker.RegisterCheck("trust_store", health.TrustStoreCheck(tlspkg.ProcessTrust))

	srv, err := server.New(cfg.Server, server.Deps{
		Validator: validator,
		Checker:   checker,
		Gatherer:  registry,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &application{
		config:   cfg,
		server:   srv,
		tracer:   tracer,
		registry: registry,
		logger:   logger,
	}, nil
}

// newRegistry creates the process metrics registry with the runtime collectors.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// initTracer initializes the tracer from the tracing configuration.
func initTracer(cfg *config.Config) (*observability.Tracer, error) {
	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	return tracer, nil
}

// newValidator builds the introspection client, its optional circuit breaker
// and the token validator, registering their metrics on registerer.
func newValidator(
	cfg *config.Config,
	logger observability.Logger,
	registerer prometheus.Registerer,
) (*auth.TokenValidator, error) {
	introspectionMetrics := introspection.NewMetricsWithRegisterer(metricsNamespace, registerer)
	introspectionMetrics.Init()

	var breaker *introspection.Breaker
	if cb := cfg.Introspection.CircuitBreaker; cb.Enabled {
		breaker = introspection.NewBreaker("introspection", cb.Threshold, cb.Timeout.Duration(),
			introspection.WithBreakerLogger(logger),
			introspection.WithBreakerMetrics(introspectionMetrics),
		)
	}

	client, err := introspection.NewClient(&introspection.Config{
		URL:          cfg.Introspection.URL,
		ClientID:     cfg.Introspection.ClientID,
		ClientSecret: cfg.Introspection.ClientSecret,
		Timeout:      cfg.Introspection.Timeout.Duration(),
		Logger:       logger,
		Metrics:      introspectionMetrics,
		Breaker:      breaker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create introspection client: %w", err)
	}

	authMetrics := auth.NewMetricsWithRegisterer(metricsNamespace, registerer)
	authMetrics.Init()

	validator, err := auth.NewTokenValidator(client,
		auth.WithLogger(logger),
		auth.WithMetrics(authMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}

	logger.Info("token validator ready",
		observability.String("introspection_url", client.Endpoint()),
		observability.Bool("client_credentials", cfg.Introspection.ClientID != "" &&
			cfg.Introspection.ClientSecret != ""),
		observability.Bool("circuit_breaker", breaker != nil),
	)

	return validator, nil
}

// run serves until ctx is done, then shuts down gracefully.
func (a *application) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.shutdownTracer()
		return err
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.server.ShutdownTimeout())
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	serveErr := <-errCh

	if err := a.tracer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	a.logger.Info("bpmnauth stopped")
	return serveErr
}

func (a *application) shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), a.server.ShutdownTimeout())
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}
