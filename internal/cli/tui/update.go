package tui

import (
	"errors"
	"math"

	tea "github.com/charmbracelet/bubbletea"
)

var errNoUncertainty = errors.New("estimator has no uncertainty, sharpe ratio unavailable")

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return evaluate(m)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case evaluatedMsg:
		// Results for a state the user already moved away from are dropped
		if msg.proportion != m.proportion || msg.budget != m.budget || msg.sharpe != m.sharpe {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.reading = msg.reading
			m.curve = msg.curve
		}
		return m, nil

	case optimizedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.lastRun = msg.run
		m.proportion = msg.run.Proportion
		m.loading = true
		return m, evaluate(m)
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "left", "h":
		return m.moveProportion(-m.config.ProportionStep)

	case "right", "l":
		return m.moveProportion(m.config.ProportionStep)

	case "up", "k":
		return m.moveBudget(m.config.BudgetStep)

	case "down", "j":
		return m.moveBudget(-m.config.BudgetStep)

	case "s":
		if !m.info.Uncertainty {
			m.err = errNoUncertainty
			return m, nil
		}
		m.sharpe = !m.sharpe
		m.loading = true
		return m, evaluate(m)

	case "o":
		m.loading = true
		return m, optimize(m)

	case "r":
		m.loading = true
		return m, evaluate(m)
	}

	return m, nil
}

func (m Model) moveProportion(delta float64) (tea.Model, tea.Cmd) {
	p := math.Round((m.proportion+delta)*1e9) / 1e9
	p = math.Max(0, math.Min(1, p))
	if p == m.proportion {
		return m, nil
	}
	m.proportion = p
	m.loading = true
	return m, evaluate(m)
}

func (m Model) moveBudget(delta float64) (tea.Model, tea.Cmd) {
	b := math.Max(0, m.budget+delta)
	if b == m.budget {
		return m, nil
	}
	m.budget = b
	m.loading = true
	return m, evaluate(m)
}
