package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/kbsync/internal/config"
	outboxHTTP "github.com/allisson/kbsync/internal/outbox/http"
)

// Server is the admin HTTP server: health probes plus the outbox
// observability API.
type Server struct {
	server *http.Server
	cfg    *config.Config
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates the admin HTTP server.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	outboxHandler *outboxHTTP.OutboxHandler,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      s.createRouter(outboxHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// createRouter assembles the gin engine with the middleware stack and routes.
func (s *Server) createRouter(outboxHandler *outboxHTTP.OutboxHandler) *gin.Engine {
	gin.SetMode(s.cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(s.cfg.CORSEnabled, s.cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if s.cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(s.cfg.RateLimitRequestsPerSec, s.cfg.RateLimitBurst, s.logger))
	}
	v1.GET("/outbox/stats", outboxHandler.StatsHandler)
	v1.GET("/outbox/events", outboxHandler.ListEventsHandler)

	return router
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness, checking each backing component.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}
	status := http.StatusOK
	overall := "ready"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = "error"
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	}

	c.JSON(status, gin.H{"status": overall, "components": components})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "shutting down http server")
	return s.server.Shutdown(ctx)
}
