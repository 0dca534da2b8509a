package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/bpmnauth/internal/auth"
	"github.com/vyrodovalexey/bpmnauth/internal/config"
	"github.com/vyrodovalexey/bpmnauth/internal/health"
	"github.com/vyrodovalexey/bpmnauth/internal/middleware"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Deps are the collaborators the server wires into its routes.
type Deps struct {
	// Validator authenticates the protected group. Required.
	Validator *auth.TokenValidator

	// Checker backs the probe endpoints. Optional.
	Checker *health.Checker

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger is the logger to use (optional).
	Logger observability.Logger
}

// Server is the host HTTP server.
type Server struct {
	engine     *gin.Engine
	protected  *gin.RouterGroup
	httpServer *http.Server
	config     config.ServerConfig
	logger     observability.Logger
	mu         sync.Mutex
	running    bool
}

// New builds the gin engine and its routes.
func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Validator == nil {
		return nil, errors.New("token validator is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	checker := deps.Checker
	if checker == nil {
		checker = health.NewChecker("")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	ginModeOnce.Do(func() {
		if gin.Mode() == gin.DebugMode {
			gin.SetMode(gin.ReleaseMode)
		}
	})

	engine := gin.New()
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.AccessLog(logger),
	)

	engine.GET("/healthz", checker.GinHealth)
	engine.GET("/livez", checker.GinLiveness)
	engine.GET("/readyz", checker.GinReadiness)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = config.DefaultBasePath
	}
	basePath = "/" + strings.Trim(basePath, "/")

	protected := engine.Group(basePath, deps.Validator.GinMiddleware())
	protected.GET("/whoami", whoami)

	readHeaderTimeout := cfg.ReadHeaderTimeout.Duration()
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = config.DefaultReadHeaderTimeout
	}

	return &Server{
		engine:    engine,
		protected: protected,
		httpServer: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// whoami answers with the identity resolved by the auth middleware.
func whoami(c *gin.Context) {
	identity, err := auth.IdentityFromContextOrError(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Protected returns the authenticated route group so hosts can mount the
// engine REST resources behind the bearer token check.
func (s *Server) Protected() *gin.RouterGroup {
	return s.protected
}

// ListenAndServe listens on the configured address and serves until Stop.
func (s *Server) ListenAndServe() error {
	address := s.config.Address
	if address == "" {
		address = config.DefaultListenAddress
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return s.Serve(listener)
}

// Serve serves on listener until Stop. It returns nil after a graceful stop,
// including when Stop ran before Serve.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("starting HTTP server",
		observability.String("address", listener.Addr().String()),
		observability.String("basePath", s.protected.BasePath()),
		observability.Duration("readHeaderTimeout", s.httpServer.ReadHeaderTimeout),
	)

	err := s.httpServer.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop stops the server gracefully, waiting for in-flight requests until ctx ends.
// A stopped server cannot be served again.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ShutdownTimeout returns the configured graceful shutdown timeout.
func (s *Server) ShutdownTimeout() time.Duration {
	if d := s.config.ShutdownTimeout.Duration(); d > 0 {
		return d
	}
	return config.DefaultShutdownTimeout
}
