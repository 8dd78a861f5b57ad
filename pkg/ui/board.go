package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/model"
)

// BoardModel shows leads as pipeline columns, one per stage.
type BoardModel struct {
	groups []analysis.StageGroup
	col    int
	rows   []int // selected row per column
	offset []int // first visible row per column
	width  int
	height int
	theme  Theme
}

// NewBoardModel creates an empty board.
func NewBoardModel(theme Theme) BoardModel {
	return BoardModel{theme: theme}
}

// SetGroups replaces the columns, keeping the cursor where it still fits.
func (m *BoardModel) SetGroups(groups []analysis.StageGroup) {
	m.groups = groups
	if len(m.rows) != len(groups) {
		m.rows = make([]int, len(groups))
		m.offset = make([]int, len(groups))
	}
	if m.col >= len(groups) {
		m.col = 0
	}
	for i, g := range groups {
		if m.rows[i] >= len(g.Leads) {
			m.rows[i] = max(len(g.Leads)-1, 0)
		}
	}
}

// SetSize sets the board dimensions
func (m *BoardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// HandleKey moves the cursor. It reports whether the key was consumed.
func (m *BoardModel) HandleKey(key string) bool {
	if len(m.groups) == 0 {
		return false
	}
	switch key {
	case "h", "left":
		if m.col > 0 {
			m.col--
		}
	case "l", "right", "tab":
		if m.col < len(m.groups)-1 {
			m.col++
		}
	case "k", "up":
		if m.rows[m.col] > 0 {
			m.rows[m.col]--
		}
	case "j", "down":
		if m.rows[m.col] < len(m.groups[m.col].Leads)-1 {
			m.rows[m.col]++
		}
	case "g", "home":
		m.rows[m.col] = 0
	case "G", "end":
		m.rows[m.col] = max(len(m.groups[m.col].Leads)-1, 0)
	default:
		return false
	}
	return true
}

// Selected returns the lead under the cursor.
func (m BoardModel) Selected() (model.Lead, bool) {
	if m.col >= len(m.groups) {
		return model.Lead{}, false
	}
	leads := m.groups[m.col].Leads
	if len(leads) == 0 {
		return model.Lead{}, false
	}
	return leads[m.rows[m.col]], true
}

// Column returns the focused stage.
func (m BoardModel) Column() string {
	if m.col >= len(m.groups) {
		return ""
	}
	return m.groups[m.col].Stage
}

// View renders the columns side by side.
func (m *BoardModel) View() string {
	if len(m.groups) == 0 {
		return ""
	}
	t := m.theme

	colWidth := m.width/len(m.groups) - 2
	if colWidth < 14 {
		colWidth = 14
	}
	cardsVisible := (m.height - 4) / 3
	if cardsVisible < 1 {
		cardsVisible = 1
	}

	cols := make([]string, len(m.groups))
	for ci, g := range m.groups {
		focused := ci == m.col
		color := t.StageColor(g.Stage)

		total := 0.0
		for _, l := range g.Leads {
			total += l.Value
		}
		header := t.Renderer.NewStyle().Bold(true).Foreground(color).
			Render(fmt.Sprintf("%s (%d)", strings.ToUpper(g.Stage), len(g.Leads)))
		sub := t.Renderer.NewStyle().Foreground(t.Subtext).Render(FormatMoney(total))

		// keep the selected card in view
		row := m.rows[ci]
		if row < m.offset[ci] {
			m.offset[ci] = row
		}
		if row >= m.offset[ci]+cardsVisible {
			m.offset[ci] = row - cardsVisible + 1
		}

		lines := []string{header, sub, ""}
		end := min(m.offset[ci]+cardsVisible, len(g.Leads))
		for ri := m.offset[ci]; ri < end; ri++ {
			lines = append(lines, m.renderCard(g.Leads[ri], colWidth-2, focused && ri == row))
		}
		if len(g.Leads) == 0 {
			lines = append(lines, t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).Render("empty"))
		}
		if hidden := len(g.Leads) - end; hidden > 0 {
			lines = append(lines, t.Renderer.NewStyle().Foreground(t.Subtext).Render(fmt.Sprintf("+%d more", hidden)))
		}

		border := t.Border
		if focused {
			border = t.Primary
		}
		cols[ci] = t.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Width(colWidth).
			Height(m.height - 2).
			Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m BoardModel) renderCard(lead model.Lead, width int, selected bool) string {
	t := m.theme
	nameStyle := t.Renderer.NewStyle().Bold(true)
	if selected {
		nameStyle = nameStyle.Foreground(t.Primary).Background(t.Highlight)
	}
	name := nameStyle.Render(truncate(lead.DisplayName(), width))

	detail := lead.Company
	if detail == "" {
		detail = lead.Email
	}
	meta := RenderPriorityBadge(lead.PriorityLevel()) + " " + FormatMoney(lead.Value)
	return name + "\n" +
		t.Renderer.NewStyle().Foreground(t.Subtext).Render(truncate(detail, width)) + "\n" +
		meta
}
