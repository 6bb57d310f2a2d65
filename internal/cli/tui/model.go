package tui

import (
	"context"
	"time"

	"github.com/haskel/readalloc/internal/engine"
	"github.com/haskel/readalloc/internal/storage"
)

const (
	defaultProportionStep = 0.05
	defaultBudgetStep     = 10
	curvePoints           = 21
)

// Explorer is the part of the engine the TUI drives.
type Explorer interface {
	Info() engine.Info
	NewOptimizeRequest() engine.OptimizeRequest
	Objective(ctx context.Context, p, total float64, sharpe, negate bool) (float64, error)
	Optimize(ctx context.Context, req engine.OptimizeRequest) (*storage.Run, error)
}

// Config holds TUI configuration
type Config struct {
	Explorer Explorer

	// ProportionStep is how far ←/→ move the fiction share.
	ProportionStep float64
	// BudgetStep is how far ↑/↓ move the total budget, in minutes.
	BudgetStep float64
	Timeout    time.Duration
}

// Model represents the TUI state
type Model struct {
	config Config
	info   engine.Info

	proportion float64
	budget     float64
	sharpe     bool

	reading float64
	curve   []float64
	lastRun *storage.Run

	width   int
	height  int
	loading bool
	err     error
}

// NewModel creates the explorer state at an even split of the configured
// budget.
func NewModel(cfg Config) Model {
	if cfg.ProportionStep <= 0 {
		cfg.ProportionStep = defaultProportionStep
	}
	if cfg.BudgetStep <= 0 {
		cfg.BudgetStep = defaultBudgetStep
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	req := cfg.Explorer.NewOptimizeRequest()
	return Model{
		config:     cfg,
		info:       cfg.Explorer.Info(),
		proportion: 0.5,
		budget:     req.TotalBudget,
		sharpe:     req.Sharpe,
		loading:    true,
	}
}

func (m Model) Proportion() float64 { return m.proportion }
func (m Model) Budget() float64     { return m.budget }
func (m Model) Sharpe() bool        { return m.sharpe }
func (m Model) Reading() float64    { return m.reading }
func (m Model) Err() error          { return m.err }
