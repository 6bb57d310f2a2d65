package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/logger"
	"github.com/haskel/readalloc/internal/server/middleware"
)

type Server struct {
	httpServer *http.Server
	engine     *engine.Engine
	gatherer   prometheus.Gatherer
	config     *config.Config
	logger     *slog.Logger
	version    string
	authConfig *middleware.AuthConfig
}

// New creates the API server. A nil gatherer disables /metrics.
func New(cfg *config.Config, eng *engine.Engine, gatherer prometheus.Gatherer, log *slog.Logger, version string) *Server {
	log = logger.Component(log, "server")

	s := &Server{
		engine:     eng,
		gatherer:   gatherer,
		config:     cfg,
		logger:     log,
		version:    version,
		authConfig: middleware.NewAuthConfig(cfg.Auth),
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ReloadConfig applies the settings that can change without a restart.
func (s *Server) ReloadConfig(cfg *config.Config) {
	s.authConfig.Update(cfg.Auth)
	s.config = cfg
	s.logger.Info("configuration reloaded", "auth_enabled", cfg.Auth.Enabled)
}

func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
