package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/model"
)

// StageItem is one choice in the stage picker.
type StageItem struct {
	Stage string // raw status value, or model.StageAll
	Count int
}

// StageSelectorModel is the stage filter overlay. Typing narrows the list
// with fuzzy matching; enter confirms, esc cancels.
type StageSelectorModel struct {
	allItems      []StageItem
	filteredItems []StageItem

	searchInput   textinput.Model
	selectedIndex int

	width  int
	height int
	theme  Theme

	confirmed    bool
	cancelled    bool
	selectedItem *StageItem
}

// NewStageSelectorModel builds the picker from the current lead counts.
// "all" always comes first, followed by the counted stages.
func NewStageSelectorModel(counts []analysis.StageCount, current string, theme Theme) StageSelectorModel {
	ti := textinput.New()
	ti.Placeholder = "Filter stages..."
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 30

	total := 0
	items := make([]StageItem, 0, len(counts)+1)
	for _, c := range counts {
		total += c.Count
	}
	items = append(items, StageItem{Stage: model.StageAll, Count: total})
	for _, c := range counts {
		if c.Stage == "" || c.Stage == model.StageAll {
			continue
		}
		items = append(items, StageItem{Stage: c.Stage, Count: c.Count})
	}

	m := StageSelectorModel{
		allItems:      items,
		filteredItems: items,
		searchInput:   ti,
		theme:         theme,
		width:         60,
		height:        20,
	}
	for i, item := range items {
		if item.Stage == current {
			m.selectedIndex = i
			break
		}
	}
	return m
}

// SetSize updates the selector dimensions
func (m *StageSelectorModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// HandleKey processes one key press and reports whether it was consumed.
func (m *StageSelectorModel) HandleKey(key string) bool {
	switch key {
	case "up", "ctrl+p":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
		return true
	case "down", "ctrl+n":
		if m.selectedIndex < len(m.filteredItems)-1 {
			m.selectedIndex++
		}
		return true
	case "enter":
		if m.selectedIndex < len(m.filteredItems) {
			item := m.filteredItems[m.selectedIndex]
			m.selectedItem = &item
			m.confirmed = true
		}
		return true
	case "esc":
		m.cancelled = true
		m.selectedItem = nil
		return true
	case "backspace":
		if v := m.searchInput.Value(); v != "" {
			r := []rune(v)
			m.searchInput.SetValue(string(r[:len(r)-1]))
			m.filterItems()
		}
		return true
	default:
		if isPrintableKey(key) {
			m.searchInput.SetValue(m.searchInput.Value() + key)
			m.filterItems()
			return true
		}
	}
	return false
}

func (m *StageSelectorModel) filterItems() {
	query := strings.TrimSpace(m.searchInput.Value())
	m.selectedIndex = 0
	if query == "" {
		m.filteredItems = m.allItems
		return
	}

	names := make([]string, len(m.allItems))
	for i, item := range m.allItems {
		names[i] = item.Stage
	}
	matches := fuzzy.Find(query, names)

	m.filteredItems = make([]StageItem, 0, len(matches))
	for _, match := range matches {
		m.filteredItems = append(m.filteredItems, m.allItems[match.Index])
	}
}

// IsConfirmed returns true if the user picked a stage
func (m *StageSelectorModel) IsConfirmed() bool {
	return m.confirmed
}

// IsCancelled returns true if the user dismissed the picker
func (m *StageSelectorModel) IsCancelled() bool {
	return m.cancelled
}

// SelectedItem returns the confirmed choice, or nil
func (m *StageSelectorModel) SelectedItem() *StageItem {
	return m.selectedItem
}

// SearchValue returns the current filter text
func (m *StageSelectorModel) SearchValue() string {
	return m.searchInput.Value()
}

// ItemCount returns the number of visible choices
func (m *StageSelectorModel) ItemCount() int {
	return len(m.filteredItems)
}

// View renders the picker centered in its area
func (m *StageSelectorModel) View() string {
	t := m.theme

	boxWidth := 44
	if m.width < 54 {
		boxWidth = m.width - 10
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	contentWidth := boxWidth - 4

	var lines []string
	lines = append(lines, t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render("Filter by Stage"))
	lines = append(lines, "")

	searchValue := m.searchInput.Value()
	if searchValue == "" {
		searchValue = t.Renderer.NewStyle().Foreground(t.Placeholder).Render(m.searchInput.Placeholder)
	}
	lines = append(lines, t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Secondary).
		Padding(0, 1).
		Width(contentWidth-2).
		Render(searchValue))
	lines = append(lines, "")

	maxVisible := m.height - 12
	if maxVisible < 5 {
		maxVisible = 5
	}

	if len(m.filteredItems) == 0 {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).Render("  No matching stages"))
	}
	for i, item := range m.filteredItems {
		if i >= maxVisible {
			lines = append(lines, t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).Render(
				"  ... and "+strconv.Itoa(len(m.filteredItems)-maxVisible)+" more"))
			break
		}
		lines = append(lines, m.renderItem(item, i == m.selectedIndex, contentWidth))
	}

	lines = append(lines, "")
	lines = append(lines, t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).
		Render("↑/↓: navigate • enter: select • esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *StageSelectorModel) renderItem(item StageItem, selected bool, width int) string {
	t := m.theme

	prefix := "  "
	nameStyle := t.Renderer.NewStyle().Foreground(t.StageColor(item.Stage))
	if selected {
		prefix = "▸ "
		nameStyle = nameStyle.Bold(true).Background(t.Highlight)
	}
	if item.Stage == model.StageAll {
		nameStyle = nameStyle.Foreground(t.Primary)
	}

	count := t.Renderer.NewStyle().Foreground(t.Subtext).Render(strconv.Itoa(item.Count))
	name := prefix + truncate(item.Stage, width-8)
	padding := width - lipgloss.Width(name) - lipgloss.Width(count)
	if padding < 1 {
		padding = 1
	}
	return nameStyle.Render(name) + strings.Repeat(" ", padding) + count
}

// isPrintableKey returns true for single printable ASCII keys.
func isPrintableKey(key string) bool {
	return len(key) == 1 && key[0] >= 32 && key[0] < 127
}
