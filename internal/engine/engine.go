// Package engine binds a loaded estimator to the optimizer, the response
// surface, run history and notifications.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/estimator"
	"github.com/haskel/readalloc/internal/estimator/model"
	"github.com/haskel/readalloc/internal/logger"
	"github.com/haskel/readalloc/internal/metrics"
	"github.com/haskel/readalloc/internal/notify"
	"github.com/haskel/readalloc/internal/storage"
)

var (
	// ErrNoUncertainty is returned when a Sharpe ratio is requested from an
	// estimator without an uncertainty source.
	ErrNoUncertainty = errors.New("estimator has no uncertainty, sharpe ratio unavailable")

	// ErrInvalidRequest marks request parameters rejected before any
	// estimator call.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRunStore wraps failures of the run history backend.
	ErrRunStore = errors.New("run store")
)

// Options configure an Engine. Zero values are usable: no run history, no
// notifications, no metrics and a discarding logger.
type Options struct {
	Store     storage.RunStore
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Estimator config.EstimatorConfig
	Optimizer config.OptimizerConfig
	Grid      config.GridConfig
}

// Engine is safe for concurrent use once built.
type Engine struct {
	est      estimator.Estimator
	kind     estimator.Kind
	unc      estimator.Uncertainty
	source   string
	store    storage.RunStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	sharpe    bool
	optimizer config.OptimizerConfig
	grid      config.GridConfig
}

// New creates an engine around an already built estimator handle.
func New(est estimator.Estimator, unc estimator.Uncertainty, opts Options) (*Engine, error) {
	if est == nil {
		return nil, estimator.ErrNilEstimator
	}

	defaults := config.Default()
	if opts.Optimizer == (config.OptimizerConfig{}) {
		opts.Optimizer = defaults.Optimizer
	}
	if opts.Grid == (config.GridConfig{}) {
		opts.Grid = defaults.Grid
	}
	if opts.Grid.MaxCells <= 0 {
		opts.Grid.MaxCells = defaults.Grid.MaxCells
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}

	return &Engine{
		est:       est,
		kind:      est.Kind(),
		unc:       unc,
		source:    "custom",
		store:     opts.Store,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		logger:    logger.Component(opts.Logger, "engine"),
		sharpe:    opts.Estimator.Sharpe && unc != nil,
		optimizer: opts.Optimizer,
		grid:      opts.Grid,
	}, nil
}

// NewFromDefinition builds the estimator described by def and wraps it.
func NewFromDefinition(def *model.Definition, source string, opts Options) (*Engine, error) {
	est, unc, err := model.Build(def)
	if err != nil {
		return nil, err
	}
	e, err := New(est, unc, opts)
	if err != nil {
		return nil, err
	}
	e.source = source
	e.logger.Info("estimator loaded",
		"kind", e.kind,
		"source", source,
		"uncertainty", unc != nil,
	)
	return e, nil
}

// Info describes the loaded estimator.
type Info struct {
	Kind        estimator.Kind `json:"kind"`
	Uncertainty bool           `json:"uncertainty"`
	Source      string         `json:"source"`
	Sharpe      bool           `json:"sharpe_default"`
}

func (e *Engine) Info() Info {
	return Info{
		Kind:        e.kind,
		Uncertainty: e.unc != nil,
		Source:      e.source,
		Sharpe:      e.sharpe,
	}
}

func (e *Engine) Kind() estimator.Kind {
	return e.kind
}

// Close releases the run store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func (e *Engine) uncertainty(sharpe bool) (estimator.Uncertainty, error) {
	if !sharpe {
		return nil, nil
	}
	if e.unc == nil {
		return nil, ErrNoUncertainty
	}
	return e.unc, nil
}

// Predict estimates the reading of every allocation row. With sharpe set the
// reading is divided by its standard deviation.
func (e *Engine) Predict(ctx context.Context, batch mat.Matrix, sharpe, negate bool) (estimator.Reading, error) {
	if err := ctx.Err(); err != nil {
		return estimator.Reading{}, err
	}
	unc, err := e.uncertainty(sharpe)
	if err != nil {
		return estimator.Reading{}, err
	}

	start := time.Now()
	reading, err := estimator.Predict(batch, e.est, e.kind, unc, negate)
	e.metrics.ObservePrediction(string(e.kind), time.Since(start), err)
	return reading, err
}

// Objective evaluates the reading of spending proportion p of total on fiction.
func (e *Engine) Objective(ctx context.Context, p, total float64, sharpe, negate bool) (float64, error) {
	unc, err := e.uncertainty(sharpe)
	if err != nil {
		return 0, err
	}
	return e.objective(ctx, total, unc, negate)(p)
}

// objective returns the instrumented single-argument objective. It stops with
// the context error once ctx is done.
func (e *Engine) objective(ctx context.Context, total float64, unc estimator.Uncertainty, negate bool) func(float64) (float64, error) {
	f := estimator.NewObjective(total, e.est, e.kind, unc, negate)
	return func(p float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		start := time.Now()
		v, err := f(p)
		e.metrics.ObservePrediction(string(e.kind), time.Since(start), err)
		return v, err
	}
}

func (e *Engine) Runs(ctx context.Context, limit int) ([]*storage.Run, error) {
	if e.store == nil {
		return []*storage.Run{}, nil
	}
	runs, err := e.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunStore, err)
	}
	return runs, nil
}

func (e *Engine) notify(ctx context.Context, ev notify.Event) {
	ev.Time = time.Now().UTC()
	if err := e.notifier.Notify(ctx, ev); err != nil {
		e.logger.Warn("notification failed",
			"type", ev.Type,
			"error", err,
		)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
