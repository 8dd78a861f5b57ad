package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgSubtle    = lipgloss.Color("#363949")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorMuted       = lipgloss.Color("#6272A4")
	ColorPrimary     = lipgloss.Color("#BD93F9")

	// Priority colors
	ColorPrioHigh   = lipgloss.Color("#FFB86C")
	ColorPrioMedium = lipgloss.Color("#F1FA8C")
	ColorPrioLow    = lipgloss.Color("#50FA7B")

	ColorPrioHighBg   = lipgloss.Color("#3D2A1A")
	ColorPrioMediumBg = lipgloss.Color("#3D3D1A")
	ColorPrioLowBg    = lipgloss.Color("#1A3D2A")

	// Stage background colors (for badges)
	ColorStageNewBg       = lipgloss.Color("#1A3344")
	ColorStageContactedBg = lipgloss.Color("#3D3D1A")
	ColorStageQualifiedBg = lipgloss.Color("#1A3D2A")
	ColorStageProposalBg  = lipgloss.Color("#3D1A33")
	ColorStageWonBg       = lipgloss.Color("#133D1A")
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ROW STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	ItemStyle         = lipgloss.NewStyle().PaddingLeft(1)
	SelectedItemStyle = lipgloss.NewStyle().PaddingLeft(0).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorPrimary)

	ColPrioStyle    = lipgloss.NewStyle().Width(5).MarginRight(1)
	ColStageStyle   = lipgloss.NewStyle().Width(11).MarginRight(1)
	ColNameStyle    = lipgloss.NewStyle().MarginRight(1)
	ColCompanyStyle = lipgloss.NewStyle().Foreground(ColorMuted).MarginRight(1)
	ColValueStyle   = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// RenderPriorityBadge returns a styled priority badge. Unknown values render
// like medium, matching how they sort.
func RenderPriorityBadge(priority string) string {
	var fg, bg lipgloss.Color
	var label string

	switch priority {
	case "high":
		fg, bg, label = ColorPrioHigh, ColorPrioHighBg, "HIGH"
	case "low":
		fg, bg, label = ColorPrioLow, ColorPrioLowBg, "LOW"
	default:
		fg, bg, label = ColorPrioMedium, ColorPrioMediumBg, "MED"
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Render(label)
}

// RenderStageBadge returns a styled stage badge.
func RenderStageBadge(stage string, t Theme) string {
	var bg lipgloss.Color
	switch stage {
	case "new":
		bg = ColorStageNewBg
	case "contacted":
		bg = ColorStageContactedBg
	case "qualified":
		bg = ColorStageQualifiedBg
	case "proposal":
		bg = ColorStageProposalBg
	case "won":
		bg = ColorStageWonBg
	default:
		bg = ColorBgSubtle
	}

	return t.Renderer.NewStyle().
		Foreground(t.StageColor(stage)).
		Background(bg).
		Render(strings.ToUpper(stage))
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC VISUALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// RenderMiniBar renders a mini horizontal bar for a value between 0 and 1
func RenderMiniBar(value float64, width int, color lipgloss.TerminalColor, t Theme) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value * float64(width))
	if value > 0 && filled == 0 {
		filled = 1
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(color).Render(bar)
}

// FormatMoney renders a lead value compactly: $950, $1.5k, $12k, $3.2M.
func FormatMoney(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("$%.0fk", v/1_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fk", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
