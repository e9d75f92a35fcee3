package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/middleware"
	"github.com/health-analytics-server/internal/service"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	config  *domain.Config
	service *service.AnalyticsService
	logger  *logrus.Logger
	checks  map[string]HealthChecker
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(config *domain.Config, svc *service.AnalyticsService, logger *logrus.Logger) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestTimeout(config.Server.RequestTimeout))
	if config.RateLimit.Enabled {
		router.Use(middleware.NewRateLimiter(config.RateLimit).Middleware())
	}

	server := &Server{
		config:  config,
		service: svc,
		logger:  logger,
		checks:  map[string]HealthChecker{},
		router:  router,
	}

	server.setupRoutes()

	return server
}

// AddHealthCheck registers a dependency probed by GET /health.
func (s *Server) AddHealthCheck(name string, check HealthChecker) {
	s.checks[name] = check
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/reference-ranges", s.handleReferenceRanges)

		scores := v1.Group("/scores")
		scores.POST("/credit", s.handleCreditScore)
		scores.POST("/disease-risk", s.handleDiseaseRisk)
		scores.POST("/mental-health", s.handleMentalHealth)
		scores.POST("/lifestyle", s.handleLifestyle)
		scores.POST("/genetic-risk", s.handleGeneticRisk)

		v1.POST("/labs/interpret", s.handleLabInterpretation)

		users := v1.Group("/users/:userID")
		users.POST("/report", s.handleReport)
		users.GET("/history", s.handleHistory)
	}
}
