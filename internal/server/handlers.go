package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/haskel/readalloc/internal/allocation"
	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/estimator"
	"github.com/haskel/readalloc/internal/optimize"
	"github.com/haskel/readalloc/internal/server/middleware"
)

const defaultRunsLimit = 20

type InfoResponse struct {
	Name      string      `json:"name"`
	Version   string      `json:"version"`
	Estimator engine.Info `json:"estimator"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// PredictRequest carries allocation rows as [fiction, help] pairs. A missing
// sharpe flag uses the configured default.
type PredictRequest struct {
	Allocations [][2]float64 `json:"allocations"`
	Sharpe      *bool        `json:"sharpe,omitempty"`
	Negate      bool         `json:"negate"`
}

// PredictResponse holds a bare number for a single row and an array
// otherwise.
type PredictResponse struct {
	Reading estimator.Reading `json:"reading"`
}

type ObjectiveRequest struct {
	Proportion  *float64 `json:"proportion"`
	TotalBudget *float64 `json:"total_budget,omitempty"`
	Sharpe      *bool    `json:"sharpe,omitempty"`
	Negate      bool     `json:"negate"`
}

type ObjectiveResponse struct {
	Proportion float64           `json:"proportion"`
	Fiction    float64           `json:"fiction"`
	Help       float64           `json:"help"`
	Reading    estimator.Reading `json:"reading"`
}

// TrackResponse lists the distance of each capped optimum from the last
// one. Non-finite distances are null.
type TrackResponse struct {
	Errors []*float64 `json:"errors"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Name:      "readalloc",
		Version:   s.version,
		Estimator: s.engine.Info(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleEstimator(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Info())
}

func (s *Server) sharpe(flag *bool) bool {
	if flag == nil {
		return s.engine.Info().Sharpe
	}
	return *flag
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Allocations) == 0 {
		middleware.WriteError(w, r, http.StatusBadRequest, "allocations must not be empty")
		return
	}

	reading, err := s.engine.Predict(r.Context(), allocation.NewBatch(req.Allocations), s.sharpe(req.Sharpe), req.Negate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PredictResponse{Reading: reading})
}

func (s *Server) handleObjective(w http.ResponseWriter, r *http.Request) {
	var req ObjectiveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Proportion == nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "proportion is required")
		return
	}
	total := s.engine.NewOptimizeRequest().TotalBudget
	if req.TotalBudget != nil {
		total = *req.TotalBudget
	}

	p := *req.Proportion
	v, err := s.engine.Objective(r.Context(), p, total, s.sharpe(req.Sharpe), req.Negate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ObjectiveResponse{
		Proportion: p,
		Fiction:    p * total,
		Help:       (1 - p) * total,
		Reading:    estimator.NewReading([]float64{v}),
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	req := s.engine.NewOptimizeRequest()
	if !s.decode(w, r, &req) {
		return
	}

	run, err := s.engine.Optimize(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	req := s.engine.NewGridRequest()
	if !s.decode(w, r, &req) {
		return
	}

	g, err := s.engine.Grid(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	req := s.engine.NewTrackRequest()
	if !s.decode(w, r, &req) {
		return
	}

	errs, err := s.engine.Track(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := TrackResponse{Errors: make([]*float64, len(errs))}
	for i, v := range errs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			resp.Errors[i] = &errs[i]
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.WriteError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", v))
			return
		}
		limit = n
	}

	runs, err := s.engine.Runs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// decode reads a JSON body into v. An empty body leaves v untouched. It
// writes the error response itself and reports whether decoding succeeded.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		middleware.WriteError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	middleware.WriteError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
	return false
}

// statusFor maps engine errors to HTTP status codes. Failures not caused by
// the request or the run store come from the estimator.
func statusFor(err error) int {
	switch {
	case errors.Is(err, estimator.ErrInvalidKind),
		errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, engine.ErrNoUncertainty),
		errors.Is(err, optimize.ErrInvalidBounds):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrRunStore):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		middleware.WriteError(w, r, status, http.StatusText(status))
		return
	}
	middleware.WriteError(w, r, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status,
		)
	}
}
