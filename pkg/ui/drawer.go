package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/phoenixcrm/leadview/pkg/model"
)

// DrawerModel shows one lead in full, rendered as markdown in a scrollable
// viewport.
type DrawerModel struct {
	lead     model.Lead
	viewport viewport.Model
	style    string
	theme    Theme
	width    int
	height   int
	visible  bool
	markdown string
}

// NewDrawerModel creates a hidden drawer. style names a glamour standard
// style ("dark", "light", "notty").
func NewDrawerModel(style string, theme Theme) DrawerModel {
	if style == "" {
		style = "dark"
	}
	return DrawerModel{
		viewport: viewport.New(60, 20),
		style:    style,
		theme:    theme,
	}
}

// Open shows lead in the drawer.
func (m *DrawerModel) Open(lead model.Lead) {
	m.lead = lead
	m.visible = true
	m.render()
	m.viewport.GotoTop()
}

// Close hides the drawer.
func (m *DrawerModel) Close() {
	m.visible = false
}

// IsVisible returns true if the drawer is open
func (m DrawerModel) IsVisible() bool {
	return m.visible
}

// Lead returns the lead on display.
func (m DrawerModel) Lead() model.Lead {
	return m.lead
}

// Markdown returns the source the drawer last rendered.
func (m DrawerModel) Markdown() string {
	return m.markdown
}

// SetSize sets the drawer dimensions
func (m *DrawerModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	w := width - 6
	if w > 90 {
		w = 90
	}
	if w < MinBoxWidth {
		w = MinBoxWidth
	}
	h := height - 6
	if h < MinContentHeight {
		h = MinContentHeight
	}
	m.viewport.Width = w
	m.viewport.Height = h
	if m.visible {
		m.render()
	}
}

// Update scrolls the viewport.
func (m DrawerModel) Update(msg tea.Msg) (DrawerModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DrawerModel) render() {
	m.markdown = LeadMarkdown(m.lead)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(m.viewport.Width-2),
	)
	if err != nil {
		m.viewport.SetContent(m.markdown)
		return
	}
	out, err := r.Render(m.markdown)
	if err != nil {
		out = m.markdown
	}
	m.viewport.SetContent(out)
}

// View renders the drawer box
func (m DrawerModel) View() string {
	if !m.visible {
		return ""
	}
	t := m.theme

	hint := t.Renderer.NewStyle().Faint(true).
		Render("[c] copy email  [n] edit notes  [↑/↓] scroll  [esc] close")

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.StageColor(m.lead.Stage())).
		Padding(0, 1).
		Render(m.viewport.View() + "\n" + hint)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// LeadMarkdown formats a lead for the detail drawer. Missing contact details
// get explicit placeholders and stage/priority show their defaults.
func LeadMarkdown(lead model.Lead) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(lead.DisplayName()))

	var sub []string
	if lead.Title != "" {
		sub = append(sub, escapeMarkdown(lead.Title))
	}
	if lead.Company != "" {
		sub = append(sub, escapeMarkdown(lead.Company))
	}
	if len(sub) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(sub, " at "))
	}

	fmt.Fprintf(&b, "**Stage:** `%s` · **Priority:** `%s` · **Value:** %s\n\n",
		lead.Stage(), lead.PriorityLevel(), FormatMoney(lead.Value))

	b.WriteString("## Contact\n\n")
	email := "No email"
	if lead.Email != "" {
		email = escapeMarkdown(lead.Email)
	}
	phone := "No phone"
	if lead.Phone != "" {
		phone = escapeMarkdown(model.FormatPhone(lead.Phone))
	}
	fmt.Fprintf(&b, "- **Email:** %s\n", email)
	fmt.Fprintf(&b, "- **Phone:** %s\n", phone)
	if lead.Source != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", escapeMarkdown(lead.Source))
	}
	if lead.AssignedTo != "" {
		fmt.Fprintf(&b, "- **Owner:** %s\n", escapeMarkdown(lead.AssignedTo))
	}
	b.WriteString("\n")

	b.WriteString("## Notes\n\n")
	if strings.TrimSpace(lead.Notes) == "" {
		b.WriteString("*No notes yet.*\n\n")
	} else {
		b.WriteString(lead.Notes)
		b.WriteString("\n\n")
	}

	if !lead.CreatedAt.IsZero() || !lead.UpdatedAt.IsZero() {
		b.WriteString("---\n\n")
		if !lead.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "Created %s", lead.CreatedAt.Format("2006-01-02"))
		}
		if !lead.UpdatedAt.IsZero() {
			if !lead.CreatedAt.IsZero() {
				b.WriteString(" · ")
			}
			fmt.Fprintf(&b, "updated %s", lead.UpdatedAt.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "[", `\[`, "]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
