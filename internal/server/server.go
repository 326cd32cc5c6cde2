// Package server exposes the annotation parser over HTTP. Every request is
// parsed with the server's registry and a context built from the request.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/toyz/annotate/pkg/annotations"
)

// Config holds the settings of the server
type Config struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string

	// Timeout bounds every request and the graceful shutdown
	Timeout time.Duration

	// Ignore lists annotation names skipped in every request
	Ignore []string
}

// Server serves the parse API
type Server struct {
	echo     *echo.Echo
	config   Config
	registry *annotations.Registry
	parser   *annotations.Parser
	logger   *zap.Logger
}

// New creates a server parsing with registry. A nil logger discards logs.
func New(cfg Config, registry *annotations.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		config:   cfg,
		registry: registry,
		parser:   annotations.NewParser(annotations.NewFactory(registry)),
		logger:   logger,
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.ContextTimeout(cfg.Timeout))

	e.GET("/healthz", s.health)
	e.GET("/v1/types", s.types)
	e.POST("/v1/parse", s.parse)

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			zap.String("addr", s.config.Addr),
			zap.Int("types", s.registry.Len()))
		errCh <- s.echo.Start(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
