package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/phoenixcrm/leadview/pkg/model"
)

// NoteInputModel is the modal editor for a lead's notes
type NoteInputModel struct {
	textarea textarea.Model
	leadID   string
	leadName string
	original string
	width    int
	height   int
	theme    Theme

	submitted bool
	cancelled bool
	notes     string
}

// NewNoteInputModel opens the editor prefilled with the lead's notes
func NewNoteInputModel(lead model.Lead, theme Theme) NoteInputModel {
	ta := textarea.New()
	ta.Placeholder = "Call summary, next steps..."
	ta.CharLimit = 4000
	ta.SetWidth(50)
	ta.SetHeight(8)
	ta.SetValue(lead.Notes)
	ta.Focus()

	return NoteInputModel{
		textarea: ta,
		leadID:   lead.ID,
		leadName: lead.DisplayName(),
		original: lead.Notes,
		theme:    theme,
	}
}

// Init implements tea.Model
func (m NoteInputModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model
func (m NoteInputModel) Update(msg tea.Msg) (NoteInputModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.cancelled = true
			return m, nil
		case "ctrl+s", "ctrl+j":
			// ctrl+j for terminals that can't send ctrl+enter
			m.submitted = true
			m.notes = m.textarea.Value()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m NoteInputModel) View() string {
	var b strings.Builder

	width := 60
	if m.width > 0 && m.width < 70 {
		width = m.width - 10
	}

	titleStyle := m.theme.Renderer.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary).
		Width(width).
		Align(lipgloss.Center)
	b.WriteString(titleStyle.Render("Notes for " + m.leadName))
	b.WriteString("\n\n")

	b.WriteString(m.textarea.View())
	b.WriteString("\n\n")

	hintStyle := m.theme.Renderer.NewStyle().Faint(true)
	b.WriteString(hintStyle.Render("[Ctrl+S/Ctrl+J] Save  [Esc] Cancel"))

	boxStyle := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(1, 2).
		Width(width)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(b.String()))
}

// SetSize sets the modal dimensions
func (m *NoteInputModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	taWidth := width - 20
	if taWidth < 30 {
		taWidth = 30
	}
	if taWidth > 60 {
		taWidth = 60
	}
	m.textarea.SetWidth(taWidth)
}

// IsSubmitted returns true if the user saved
func (m NoteInputModel) IsSubmitted() bool {
	return m.submitted
}

// IsCancelled returns true if the user cancelled
func (m NoteInputModel) IsCancelled() bool {
	return m.cancelled
}

// Notes returns the submitted text
func (m NoteInputModel) Notes() string {
	return m.notes
}

// Changed reports whether the submitted text differs from the lead's notes
func (m NoteInputModel) Changed() bool {
	return m.notes != m.original
}

// LeadID returns the lead being edited
func (m NoteInputModel) LeadID() string {
	return m.leadID
}

// LeadUpdate returns the partial update carrying the new notes
func (m NoteInputModel) LeadUpdate() model.LeadUpdate {
	notes := m.notes
	return model.LeadUpdate{Notes: &notes}
}
