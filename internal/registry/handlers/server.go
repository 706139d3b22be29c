package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// requestIDHeader carries the per-request correlation id.
const requestIDHeader = "X-Request-Id"

// Server wraps the echo engine with route registration and a graceful
// lifecycle.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	endpoint string
}

// NewServer constructs a Server listening on the given port.
func NewServer(port int, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("30M"))
	e.Use(requestLogger(logger))

	return &Server{
		echo:     e,
		logger:   logger,
		endpoint: fmt.Sprintf(":%d", port),
	}
}

// requestLogger attaches a request id and logs one line per request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(requestIDHeader, requestID)

			start := time.Now()
			err := next(c)
			logger.Info("request",
				zap.String("request_id", requestID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

// RegisterRoutes wires the five registry sections onto the engine.
func (s *Server) RegisterRoutes(h *RegistryHandler) {
	// Companies
	s.echo.POST("/api/companies", h.CreateCompany)
	s.echo.GET("/api/companies", h.ListCompanies)
	s.echo.DELETE("/api/companies/:id", h.DeleteCompany)

	// Partners
	s.echo.POST("/api/partners", h.CreatePartner)
	s.echo.GET("/api/partners", h.ListPartners)
	s.echo.DELETE("/api/partners/:id", h.DeletePartner)

	// Upload PDFs
	s.echo.POST("/api/documents", h.UploadDocuments)
	s.echo.GET("/api/documents", h.ListDocuments)
	s.echo.GET("/api/documents/:id/download", h.DownloadDocument)
	s.echo.DELETE("/api/documents/:id", h.DeleteDocument)

	// Process PDFs
	s.echo.GET("/api/documents/:id/text", h.ExtractDocumentText)
	s.echo.POST("/api/events", h.RegisterEvent)

	// View records
	s.echo.GET("/api/events", h.ListEvents)
	s.echo.DELETE("/api/events/:id", h.DeleteEvent)

	s.echo.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

// Start serves HTTP until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.endpoint))
	if err := s.echo.Start(s.endpoint); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server with a bounded deadline.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Server stopped")
}
