// Package render formats learner progress for the terminal.
package render

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/medilearn/healthxp/internal/achievements"
)

// Palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary)

	bodyStyle = lipgloss.NewStyle().
			Foreground(Text)

	dimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	xpStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Success)

	streakStyle = lipgloss.NewStyle().
			Foreground(Accent)

	warnStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)
)

// RarityColor returns the accent color for a rarity tier.
func RarityColor(r achievements.Rarity) color.Color {
	switch r {
	case achievements.RarityRare:
		return Secondary
	case achievements.RarityEpic:
		return Primary
	case achievements.RarityLegendary:
		return Accent
	default:
		return TextDim
	}
}

func rarityStyle(r achievements.Rarity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(RarityColor(r)).Bold(r.Rank() > 0)
}
