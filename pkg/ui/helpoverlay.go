package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpKey struct{ key, desc string }

var helpSections = []struct {
	title string
	keys  []helpKey
}{
	{"NAVIGATION", []helpKey{
		{"j/↓", "Move down"},
		{"k/↑", "Move up"},
		{"g/G", "Top / bottom"},
		{"enter", "Open lead details"},
		{"b", "Toggle pipeline board"},
		{"h/l", "Board: previous / next column"},
	}},
	{"FILTER & SORT", []helpKey{
		{"/", "Search name, email, company"},
		{"esc", "Leave search"},
		{"f", "Pick stage"},
		{"a", "All stages"},
		{"s", "Cycle sort (name, value, priority, stage)"},
	}},
	{"LEAD", []helpKey{
		{"c", "Copy email"},
		{"n", "Edit notes"},
	}},
	{"GENERAL", []helpKey{
		{"r", "Reload"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}},
}

// HelpOverlayModel lists the key bindings. The parent model owns focus, so
// the overlay only tracks whether it is showing and how much room it has.
type HelpOverlayModel struct {
	visible       bool
	width, height int
	theme         Theme
}

func NewHelpOverlayModel(theme Theme) HelpOverlayModel {
	return HelpOverlayModel{theme: theme}
}

func (m *HelpOverlayModel) Show() { m.visible = true }
func (m *HelpOverlayModel) Hide() { m.visible = false }

func (m *HelpOverlayModel) SetSize(width, height int) {
	m.width, m.height = width, height
}

// View renders the key table centered in the body, or "" when hidden.
func (m HelpOverlayModel) View() string {
	if !m.visible {
		return ""
	}

	var b strings.Builder

	titleStyle := m.theme.Renderer.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Lead Viewer Help"))
	b.WriteString("\n\n")

	sectionStyle := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Secondary)
	keyStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Width(12)
	descStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext)

	for _, section := range helpSections {
		b.WriteString(sectionStyle.Render(section.title) + "\n")
		for _, s := range section.keys {
			b.WriteString("  " + keyStyle.Render(s.key) + descStyle.Render(s.desc) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Renderer.NewStyle().Faint(true).Italic(true).Render("any key closes"))

	boxStyle := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(1, 2)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(b.String()))
}
