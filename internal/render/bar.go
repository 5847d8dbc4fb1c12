package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64 // 0.0 to 1.0
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the bar with block characters so it reads without color.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(bodyStyle.Render(p.Label) + "  ")
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6
	}
	barWidth := p.Width - lipgloss.Width(b.String()) - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	pct := max(0, min(p.Percent, 1))
	filled := int(float64(barWidth) * pct)

	b.WriteString(lipgloss.NewStyle().Foreground(Secondary).Render(strings.Repeat("█", filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", barWidth-filled)))
	if p.ShowPercent {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %3d%%", int(pct*100))))
	}
	return b.String()
}
