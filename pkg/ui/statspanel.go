package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phoenixcrm/leadview/pkg/analysis"
)

// RenderStatsBoxes renders the headline Total / New / Qualified counters as
// three bordered boxes side by side.
func RenderStatsBoxes(stats analysis.Stats, width int, theme Theme) string {
	boxWidth := (width - StatsPanelPadding) / 3
	if boxWidth < MinBoxWidth {
		boxWidth = MinBoxWidth
	}

	box := func(label string, n int, color lipgloss.TerminalColor) string {
		numStyle := theme.Renderer.NewStyle().Bold(true).Foreground(color)
		labelStyle := theme.Renderer.NewStyle().Foreground(theme.Subtext)
		return theme.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Width(boxWidth-2).
			Align(lipgloss.Center).
			Render(numStyle.Render(fmt.Sprintf("%d", n)) + " " + labelStyle.Render(label))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("Total", stats.Total, theme.Primary),
		box("New", stats.New, theme.New),
		box("Qualified", stats.Qualified, theme.Qualified),
	)
}

// RenderStageBars renders one line per stage with a proportional mini bar.
func RenderStageBars(counts []analysis.StageCount, theme Theme) []string {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		total = 1
	}

	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		color := theme.StageColor(c.Stage)
		dot := theme.Renderer.NewStyle().Foreground(color).Render("●")
		label := c.Stage
		if label == "" {
			label = "(none)"
		}
		bar := RenderMiniBar(float64(c.Count)/float64(total), 10, color, theme)
		lines = append(lines, fmt.Sprintf("   %s %-12s %3d %s", dot, truncate(label, 11)+":", c.Count, bar))
	}
	return lines
}

// RenderValueLine summarizes pipeline value in a single line.
func RenderValueLine(v analysis.ValueSummary, theme Theme) string {
	if v.Count == 0 {
		return theme.Renderer.NewStyle().Foreground(theme.Subtext).Render("No leads in view")
	}
	parts := []string{
		"pipeline " + FormatMoney(v.Sum),
		"avg " + FormatMoney(v.Mean),
		"median " + FormatMoney(v.Median),
	}
	if v.StdDev > 0 {
		parts = append(parts, "σ "+FormatMoney(v.StdDev))
	}
	parts = append(parts, "max "+FormatMoney(v.Max))
	return theme.Renderer.NewStyle().Foreground(theme.Subtext).Render(strings.Join(parts, " · "))
}
