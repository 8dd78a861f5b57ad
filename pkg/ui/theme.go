package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the adaptive colours used by every view. All styles are
// built from Renderer so output stays correct when the program is not
// writing to os.Stdout.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary     lipgloss.AdaptiveColor
	Secondary   lipgloss.AdaptiveColor
	Subtext     lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor
	Highlight   lipgloss.AdaptiveColor
	Placeholder lipgloss.AdaptiveColor

	// Pipeline stage colours
	New       lipgloss.AdaptiveColor
	Contacted lipgloss.AdaptiveColor
	Qualified lipgloss.AdaptiveColor
	Proposal  lipgloss.AdaptiveColor
	Won       lipgloss.AdaptiveColor
	Other     lipgloss.AdaptiveColor

	Danger  lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor

	Base lipgloss.Style
}

// DefaultTheme returns the Dracula-flavoured theme. A nil renderer uses the
// lipgloss default renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer: r,

		Primary:     lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:     lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:      lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#44475A"},
		Highlight:   lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#44475A"},
		Placeholder: lipgloss.AdaptiveColor{Light: "#999999", Dark: "#6272A4"},

		New:       lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#8BE9FD"},
		Contacted: lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#F1FA8C"},
		Qualified: lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#50FA7B"},
		Proposal:  lipgloss.AdaptiveColor{Light: "#8250DF", Dark: "#FF79C6"},
		Won:       lipgloss.AdaptiveColor{Light: "#116329", Dark: "#50FA7B"},
		Other:     lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"},

		Danger:  lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF5555"},
		Success: lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#50FA7B"},
	}
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#F8F8F2"})
	return t
}

// StageColor returns the colour for a lead stage.
func (t Theme) StageColor(stage string) lipgloss.AdaptiveColor {
	switch stage {
	case "new", "":
		return t.New
	case "contacted":
		return t.Contacted
	case "qualified":
		return t.Qualified
	case "proposal":
		return t.Proposal
	case "won":
		return t.Won
	default:
		return t.Other
	}
}
