package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/haskel/readalloc/internal/notify"
	"github.com/haskel/readalloc/internal/optimize"
	"github.com/haskel/readalloc/internal/storage"
	"github.com/haskel/readalloc/internal/surface"
)

// OptimizeRequest asks for the proportion of TotalBudget spent on fiction
// that maximizes the reading.
type OptimizeRequest struct {
	TotalBudget float64 `json:"total_budget"`
	Sharpe      bool    `json:"sharpe"`
	MaxIter     int     `json:"max_iter"`
	XAtol       float64 `json:"xatol"`
}

type GridRequest struct {
	MaxTime float64 `json:"max_time"`
	Step    float64 `json:"step"`
	Sharpe  bool    `json:"sharpe"`
}

type TrackRequest struct {
	TotalBudget   float64 `json:"total_budget"`
	Sharpe        bool    `json:"sharpe"`
	MaxIterations int     `json:"max_iterations"`
	XAtol         float64 `json:"xatol"`
}

// NewOptimizeRequest returns a request filled from the configured defaults.
func (e *Engine) NewOptimizeRequest() OptimizeRequest {
	return OptimizeRequest{
		TotalBudget: e.optimizer.TotalBudget,
		Sharpe:      e.sharpe,
		MaxIter:     e.optimizer.MaxIter,
		XAtol:       e.optimizer.XAtol,
	}
}

func (e *Engine) NewGridRequest() GridRequest {
	return GridRequest{
		MaxTime: e.grid.MaxTime,
		Step:    e.grid.Step,
		Sharpe:  e.sharpe,
	}
}

func (e *Engine) NewTrackRequest() TrackRequest {
	return TrackRequest{
		TotalBudget:   e.optimizer.TotalBudget,
		Sharpe:        e.sharpe,
		MaxIterations: e.optimizer.TrackIterations,
		XAtol:         e.optimizer.XAtol,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r OptimizeRequest) validate() error {
	if !finite(r.TotalBudget) || r.TotalBudget < 0 {
		return invalid("total_budget must be a non-negative number, got %g", r.TotalBudget)
	}
	if r.MaxIter < 0 {
		return invalid("max_iter must be non-negative, got %d", r.MaxIter)
	}
	if !(r.XAtol > 0) {
		return invalid("xatol must be positive, got %g", r.XAtol)
	}
	return nil
}

// Optimize maximizes the reading over proportions in [0, 1] by minimizing
// the negated objective. The run is recorded even when the minimizer stops
// without success.
func (e *Engine) Optimize(ctx context.Context, req OptimizeRequest) (*storage.Run, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	unc, err := e.uncertainty(req.Sharpe)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f := e.objective(ctx, req.TotalBudget, unc, true)
	res, err := optimize.Minimize(f, 0, 1, optimize.Options{
		MaxIter: optimize.MaxIter(req.MaxIter),
		XAtol:   req.XAtol,
	})
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	e.metrics.ObserveOptimize(res.Success, res.NFev)

	run := storage.NewRun()
	run.Kind = string(e.kind)
	run.Sharpe = req.Sharpe
	run.TotalBudget = req.TotalBudget
	run.Proportion = res.X
	run.Fiction = res.X * req.TotalBudget
	run.Help = (1 - res.X) * req.TotalBudget
	run.Reading = -res.Fun
	run.Success = res.Success
	run.Iterations = res.NIter
	run.Evaluations = res.NFev
	run.Message = res.Message

	if e.store != nil {
		if err := e.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("%w: save run: %w", ErrRunStore, err)
		}
	}

	elapsed := time.Since(start)
	e.logger.Info("proportion optimized",
		"run_id", run.ID,
		"proportion", run.Proportion,
		"reading", run.Reading,
		"success", run.Success,
		"evaluations", run.Evaluations,
		"elapsed", elapsed,
	)
	e.notify(ctx, notify.Event{
		Type:    notify.EventOptimized,
		RunID:   run.ID.String(),
		Elapsed: elapsed,
		Summary: fmt.Sprintf("fiction %.4g, help %.4g, reading %.4g", run.Fiction, run.Help, run.Reading),
	})

	return run, nil
}

// Grid evaluates the reading over the square [0, MaxTime]².
func (e *Engine) Grid(ctx context.Context, req GridRequest) (*surface.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unc, err := e.uncertainty(req.Sharpe)
	if err != nil {
		return nil, err
	}
	n, err := surface.AxisLen(req.MaxTime, req.Step)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if cells := n * n; cells > e.grid.MaxCells {
		return nil, invalid("grid of %d cells exceeds max_cells %d", cells, e.grid.MaxCells)
	}

	start := time.Now()
	g, err := surface.Sweep(req.MaxTime, req.Step, e.est, e.kind, unc)
	elapsed := time.Since(start)
	e.metrics.ObservePrediction(string(e.kind), elapsed, err)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("%dx%d cells", len(g.Fiction), len(g.Help))
	if f, h, v, ok := g.Best(); ok {
		summary += fmt.Sprintf(", best %.4g at fiction %.4g help %.4g", v, f, h)
	}
	e.logger.Debug("grid evaluated", "cells", len(g.Fiction)*len(g.Help), "elapsed", elapsed)
	e.notify(ctx, notify.Event{
		Type:    notify.EventGrid,
		Elapsed: elapsed,
		Summary: summary,
	})

	return g, nil
}

// Track reports how far the optimum found with each iteration cap is from
// the last one that was tried.
func (e *Engine) Track(ctx context.Context, req TrackRequest) ([]float64, error) {
	if !finite(req.TotalBudget) || req.TotalBudget < 0 {
		return nil, invalid("total_budget must be a non-negative number, got %g", req.TotalBudget)
	}
	if req.MaxIterations < 0 {
		return nil, invalid("max_iterations must be non-negative, got %d", req.MaxIterations)
	}
	if !(req.XAtol > 0) {
		return nil, invalid("xatol must be positive, got %g", req.XAtol)
	}
	unc, err := e.uncertainty(req.Sharpe)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	errs, err := optimize.TrackImprovement(e.objective(ctx, req.TotalBudget, unc, true), 0, 1, req.MaxIterations, req.XAtol)
	if err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}

	e.notify(ctx, notify.Event{
		Type:    notify.EventTrack,
		Elapsed: time.Since(start),
		Summary: fmt.Sprintf("%d capped runs before convergence", len(errs)),
	})
	return errs, nil
}
