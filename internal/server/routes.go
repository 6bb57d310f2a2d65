package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/haskel/readalloc/internal/metrics"
	"github.com/haskel/readalloc/internal/server/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(s.config.Server.RateLimit))
	r.Use(middleware.MaxBody(s.config.Server.MaxBodyBytes))
	r.Use(middleware.Auth(s.authConfig, "/health"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil && s.config.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/predict", s.handlePredict)
		r.Post("/objective", s.handleObjective)
		r.Post("/optimize", s.handleOptimize)
		r.Post("/grid", s.handleGrid)
		r.Post("/track", s.handleTrack)
		r.Get("/runs", s.handleRuns)
		r.Get("/estimator", s.handleEstimator)
	})

	return r
}
