package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// LeadDelegate renders one lead per row:
// priority, stage, name, company, value.
type LeadDelegate struct {
	Theme Theme
}

func (d LeadDelegate) Height() int {
	return 1
}

func (d LeadDelegate) Spacing() int {
	return 0
}

func (d LeadDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

func (d LeadDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(LeadItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderRow(i, m.Width(), index == m.Index()))
}

func (d LeadDelegate) renderRow(i LeadItem, width int, selected bool) string {
	baseStyle := ItemStyle
	if selected {
		baseStyle = SelectedItemStyle
	}

	prio := ColPrioStyle.Render(RenderPriorityBadge(i.Lead.PriorityLevel()))
	stage := ColStageStyle.Render(RenderStageBadge(truncate(i.Lead.Stage(), 11), d.Theme))
	value := ColValueStyle.Render(FormatMoney(i.Lead.Value))

	// Fixed widths: prio(5+1) + stage(11+1) + value(12) + padding/border(4)
	available := width - 6 - 12 - 12 - 4
	if available < 10 {
		available = 10
	}

	nameWidth := available
	companyWidth := 0
	if width >= BreakpointNarrow && i.Lead.Company != "" {
		nameWidth = available * 3 / 5
		companyWidth = available - nameWidth - 1
	}

	nameStyle := ColNameStyle.Width(nameWidth)
	if selected {
		nameStyle = nameStyle.Foreground(ColorPrimary).Bold(true)
	}
	name := nameStyle.Render(truncate(i.Lead.DisplayName(), nameWidth))

	cols := []string{prio, stage, name}
	if companyWidth > 0 {
		cols = append(cols, ColCompanyStyle.Width(companyWidth).Render(truncate(i.Lead.Company, companyWidth)))
	}
	cols = append(cols, value)

	return baseStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left, cols...))
}

// truncate shortens s to at most width terminal cells, marking the cut with
// an ellipsis. Wide runes (CJK, emoji) are measured correctly.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
