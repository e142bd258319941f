package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/internal/application/health"
	"github.com/aescanero/introductions/pkg/domain"
)

// IntroductionService is the application logic behind the introduction routes
type IntroductionService interface {
	Create(ctx context.Context, intro domain.Introduction) error
	List(ctx context.Context) ([]domain.Document, error)
}

// HealthReporter exposes the last store health check
type HealthReporter interface {
	GetStatus() health.Status
}

// Server represents the HTTP API server
type Server struct {
	router        *gin.Engine
	server        *http.Server
	introductions IntroductionService
	health        HealthReporter
	logger        *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	Introductions     IntroductionService
	Health            HealthReporter
	Gatherer          prometheus.Gatherer
	Tracer            trace.Tracer
	Logger            *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	if cfg.Tracer != nil {
		router.Use(tracingMiddleware(cfg.Tracer))
	}
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:        router,
		introductions: cfg.Introductions,
		health:        cfg.Health,
		logger:        cfg.Logger,
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s.setupRoutes(gatherer)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/user/:id", s.handleUserGreeting)

	// Introductions
	s.router.POST("/introduction", s.handleCreateIntroduction)
	s.router.GET("/introductions", s.handleListIntroductions)

	// Routes served by earlier deployments
	s.router.POST("/json", s.handleCreateIntroduction)
	s.router.GET("/jm", s.handleListIntroductions)

	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// SetupWebSocket adds the introduction event stream
func (s *Server) SetupWebSocket(handler interface {
	HandleIntroductionStream(*gin.Context)
}) {
	s.router.GET("/introductions/ws", handler.HandleIntroductionStream)
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
