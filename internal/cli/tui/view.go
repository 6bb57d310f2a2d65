package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haskel/readalloc/internal/surface"
)

const barWidth = 40

// View renders the TUI
func (m Model) View() string {
	sections := []string{
		m.renderTitleBar(),
		m.renderAllocation(),
		m.renderReading(),
	}

	if len(m.curve) > 0 {
		sections = append(sections, m.renderCurve())
	}
	if m.lastRun != nil {
		sections = append(sections, m.renderLastRun())
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitleBar() string {
	title := titleStyle.Render("READALLOC EXPLORER")
	status := fmt.Sprintf("estimator %s", m.info.Kind)
	if m.loading {
		status += " · computing..."
	}
	return title + "  " + helpStyle.Render(status)
}

func (m Model) renderAllocation() string {
	fiction := int(math.Round(m.proportion * barWidth))
	bar := fictionStyle.Render(strings.Repeat("█", fiction)) +
		helpShareStyle.Render(strings.Repeat("█", barWidth-fiction))

	lines := []string{
		sectionHeaderStyle.Render("Allocation"),
		bar,
		fmt.Sprintf("%s %s   %s %s   %s %s",
			labelStyle.Render("fiction"), fictionStyle.Render(fmt.Sprintf("%.1f min (%.0f%%)", m.proportion*m.budget, m.proportion*100)),
			labelStyle.Render("self-help"), helpShareStyle.Render(fmt.Sprintf("%.1f min", (1-m.proportion)*m.budget)),
			labelStyle.Render("budget"), valueStyle.Render(fmt.Sprintf("%.0f min", m.budget)),
		),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderReading() string {
	label := surface.TitleReading
	if m.sharpe {
		label = surface.TitleSharpe
	}
	return fmt.Sprintf("%s: %s", labelStyle.Render(label), valueStyle.Render(formatValue(m.reading)))
}

// renderCurve draws the reading over every proportion with a marker under
// the current one.
func (m Model) renderCurve() string {
	spark := []rune(surface.Sparkline(m.curve))
	pos := int(math.Round(m.proportion * float64(len(spark)-1)))

	marker := strings.Repeat(" ", pos) + markerStyle.Render("▲")
	return strings.Join([]string{
		sectionHeaderStyle.Render("Reading by fiction share"),
		labelStyle.Render("0% ") + string(spark) + labelStyle.Render(" 100%"),
		"   " + marker,
	}, "\n")
}

func (m Model) renderLastRun() string {
	r := m.lastRun
	status := markerStyle.Render("converged")
	if !r.Success {
		status = errorStyle.Render(r.Message)
	}
	return fmt.Sprintf("%s fiction %.1f / self-help %.1f → %s (%s, %d evaluations)",
		labelStyle.Render("optimum:"), r.Fiction, r.Help, valueStyle.Render(formatValue(r.Reading)), status, r.Evaluations)
}

func (m Model) renderFooter() string {
	return helpStyle.Render("←/→ proportion  ↑/↓ budget  o optimize  s sharpe  r refresh  q quit")
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}
