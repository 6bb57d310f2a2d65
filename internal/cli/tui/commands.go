package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haskel/readalloc/internal/storage"
)

type evaluatedMsg struct {
	proportion float64
	budget     float64
	sharpe     bool
	reading    float64
	curve      []float64
	err        error
}

type optimizedMsg struct {
	run *storage.Run
	err error
}

// evaluate computes the reading at the current proportion and the reading
// curve over the whole [0, 1] range.
func evaluate(m Model) tea.Cmd {
	cfg, p, budget, sharpe := m.config, m.proportion, m.budget, m.sharpe
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		msg := evaluatedMsg{proportion: p, budget: budget, sharpe: sharpe}
		msg.reading, msg.err = cfg.Explorer.Objective(ctx, p, budget, sharpe, false)
		if msg.err != nil {
			return msg
		}

		msg.curve = make([]float64, curvePoints)
		for i := range msg.curve {
			q := float64(i) / float64(curvePoints-1)
			msg.curve[i], msg.err = cfg.Explorer.Objective(ctx, q, budget, sharpe, false)
			if msg.err != nil {
				return msg
			}
		}
		return msg
	}
}

func optimize(m Model) tea.Cmd {
	cfg, budget, sharpe := m.config, m.budget, m.sharpe
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		req := cfg.Explorer.NewOptimizeRequest()
		req.TotalBudget = budget
		req.Sharpe = sharpe
		run, err := cfg.Explorer.Optimize(ctx, req)
		return optimizedMsg{run: run, err: err}
	}
}
