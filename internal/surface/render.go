package surface

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Viridis stops, dark to bright.
var ramp = []lipgloss.Color{
	"#440154",
	"#482878",
	"#3E4A89",
	"#31688E",
	"#26828E",
	"#1F9E89",
	"#35B779",
	"#6DCD59",
	"#B4DE2C",
	"#FDE725",
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	outOfBudgetStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const cell = "  "

// RampColor maps v within [lo, hi] onto the colour ramp.
func RampColor(v, lo, hi float64) lipgloss.Color {
	if hi <= lo {
		return ramp[len(ramp)-1]
	}
	idx := int((v - lo) / (hi - lo) * float64(len(ramp)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ramp) {
		idx = len(ramp) - 1
	}
	return ramp[idx]
}

// Render draws the grid as a heatmap with help on the vertical axis
// (growing upwards) and fiction on the horizontal axis. Out-of-budget cells
// are shaded; non-finite values are marked with "??".
func Render(g *Grid) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(g.Title()))
	b.WriteString("\n")

	lo, hi, ok := g.Range()
	label := len(formatTick(g.Help[len(g.Help)-1]))

	for j := len(g.Help) - 1; j >= 0; j-- {
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s ", label, formatTick(g.Help[j]))))
		for i := range g.Fiction {
			v := g.Values[j][i]
			switch {
			case g.OutOfBudget(i, j):
				b.WriteString(outOfBudgetStyle.Render("░░"))
			case math.IsNaN(v) || math.IsInf(v, 0) || !ok:
				b.WriteString(missingStyle.Render("??"))
			default:
				b.WriteString(lipgloss.NewStyle().Background(RampColor(v, lo, hi)).Render(cell))
			}
		}
		b.WriteString("\n")
	}

	width := 2 * len(g.Fiction)
	first := formatTick(g.Fiction[0])
	last := formatTick(g.Fiction[len(g.Fiction)-1])
	gap := width - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(strings.Repeat(" ", label+1))
	b.WriteString(axisStyle.Render(first + strings.Repeat(" ", gap) + last))
	b.WriteString("\n")
	b.WriteString(axisStyle.Render("x: free time for Fiction (min)   y: free time for Self-Help (min)"))
	b.WriteString("\n")

	if ok {
		b.WriteString(legend(lo, hi))
		b.WriteString("\n")
	}
	return b.String()
}

func legend(lo, hi float64) string {
	var swatches strings.Builder
	for _, c := range ramp {
		swatches.WriteString(lipgloss.NewStyle().Background(c).Render(cell))
	}
	return fmt.Sprintf("%s %s %s  %s",
		axisStyle.Render(fmt.Sprintf("%.3g", lo)),
		swatches.String(),
		axisStyle.Render(fmt.Sprintf("%.3g", hi)),
		outOfBudgetStyle.Render("░░ not available"),
	)
}

func formatTick(v float64) string {
	return fmt.Sprintf("%g", v)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a series on one line, scaled to its largest finite value.
func Sparkline(values []float64) string {
	hi := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			hi = math.Max(hi, v)
		}
	}

	out := make([]rune, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			out[i] = '?'
		case hi <= 0 || v <= 0:
			out[i] = sparkBlocks[0]
		default:
			idx := int(v / hi * float64(len(sparkBlocks)-1))
			if idx >= len(sparkBlocks) {
				idx = len(sparkBlocks) - 1
			}
			out[i] = sparkBlocks[idx]
		}
	}
	return string(out)
}
