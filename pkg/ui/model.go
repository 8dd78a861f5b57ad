// Package ui implements the interactive lead browser.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/model"
	"github.com/phoenixcrm/leadview/pkg/viewmodel"
)

// LeadUpdater saves partial lead changes. The backend client implements it;
// file and snapshot sources do not, which makes notes read-only.
type LeadUpdater interface {
	UpdateLead(ctx context.Context, id string, update model.LeadUpdate) (model.Lead, error)
}

// ReloadMsg asks the model to fetch the collection again. It is sent from
// outside the program, for example by the file watcher.
type ReloadMsg struct {
	Reason string
}

type notesSavedMsg struct {
	lead model.Lead
	err  error
}

type focusMode int

const (
	focusList focusMode = iota
	focusSearch
	focusStagePicker
	focusDrawer
	focusNotes
	focusHelp
)

type viewMode int

const (
	viewList viewMode = iota
	viewBoard
)

// Model is the top-level bubbletea model. It uses pointer receivers because
// load callbacks posted through the dispatcher capture and mutate it.
type Model struct {
	ctx      context.Context
	vm       *viewmodel.LeadsModel
	updater  LeadUpdater
	onLoaded func(raw []model.Lead)
	logger   *zap.Logger
	source   string
	theme    Theme
	mdStyle  string

	list        list.Model
	search      textinput.Model
	spinner     spinner.Model
	help        HelpOverlayModel
	stagePicker StageSelectorModel
	drawer      DrawerModel
	notes       NoteInputModel
	board       BoardModel

	focus     focusMode
	view      viewMode
	loading   int // loads started but not yet delivered
	errMsg    string
	statusMsg string
	width     int
	height    int
}

// Option configures a Model.
type Option func(*Model)

// WithUpdater enables notes editing.
func WithUpdater(u LeadUpdater) Option {
	return func(m *Model) { m.updater = u }
}

// WithSource sets the label shown in the header.
func WithSource(label string) Option {
	return func(m *Model) { m.source = label }
}

// WithLoadHook registers fn to run on the control goroutine after every
// successful load with a copy of the raw collection.
func WithLoadHook(fn func(raw []model.Lead)) Option {
	return func(m *Model) { m.onLoaded = fn }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTheme overrides the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// WithMarkdownStyle selects the glamour style used by the detail drawer.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) { m.mdStyle = style }
}

// NewModel wires the UI to vm. vm's dispatcher must deliver posted functions
// back into this model's Update (ProgramDispatcher does).
func NewModel(ctx context.Context, vm *viewmodel.LeadsModel, opts ...Option) *Model {
	m := &Model{
		ctx:    ctx,
		vm:     vm,
		logger: zap.NewNop(),
		theme:  DefaultTheme(nil),
		width:  100,
		height: 30,
	}
	for _, opt := range opts {
		opt(m)
	}

	l := list.New(nil, LeadDelegate{Theme: m.theme}, listWidth(m.width), m.height-chromeHeight)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)
	m.list = l

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search name, email, company"
	ti.CharLimit = 128
	ti.SetValue(vm.Query().Search)
	m.search = ti

	m.spinner = spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(m.theme.Renderer.NewStyle().Foreground(m.theme.Primary)),
	)
	m.help = NewHelpOverlayModel(m.theme)
	m.drawer = NewDrawerModel(m.mdStyle, m.theme)
	m.board = NewBoardModel(m.theme)

	m.setSize(m.width, m.height)
	m.refresh()
	return m
}

// Init starts the first load.
func (m *Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload starts a background load. The returned command starts the spinner
// when no other load was outstanding.
func (m *Model) Reload() tea.Cmd {
	m.loading++
	m.vm.Load(m.ctx, m.handleLoaded)
	if m.loading == 1 {
		return m.spinner.Tick
	}
	return nil
}

// Loading reports whether a load is outstanding.
func (m *Model) Loading() bool {
	return m.loading > 0
}

func (m *Model) handleLoaded(res viewmodel.LoadResult) {
	if m.loading > 0 {
		m.loading--
	}
	if !res.OK() {
		m.errMsg = "Failed to load leads: " + res.Message()
		return
	}
	m.errMsg = ""
	m.refresh()
	if m.onLoaded != nil {
		m.onLoaded(m.vm.Raw())
	}
}

// refresh pushes the view-model's derived state into the widgets.
func (m *Model) refresh() {
	filtered := m.vm.Filtered()
	items := make([]list.Item, len(filtered))
	for i, lead := range filtered {
		items[i] = LeadItem{Lead: lead}
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	m.board.SetGroups(m.vm.StageGroups())
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height

	bodyHeight := height - chromeHeight
	if bodyHeight < MinContentHeight {
		bodyHeight = MinContentHeight
	}
	m.list.SetSize(listWidth(width), bodyHeight)
	m.search.Width = width - 4
	m.help.SetSize(width, bodyHeight)
	m.stagePicker.SetSize(width, bodyHeight)
	m.drawer.SetSize(width, bodyHeight)
	if m.focus == focusNotes {
		m.notes.SetSize(width, bodyHeight)
	}
	m.board.SetSize(width, bodyHeight)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchMsg:
		msg.fn()
		return m, nil

	case ReloadMsg:
		if msg.Reason != "" {
			m.statusMsg = "Reloading: " + msg.Reason
		}
		return m, m.Reload()

	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.loading == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case notesSavedMsg:
		if msg.err != nil {
			m.errMsg = "Failed to save notes: " + msg.err.Error()
			return m, nil
		}
		m.statusMsg = "Notes saved for " + msg.lead.DisplayName()
		if m.drawer.IsVisible() && m.drawer.Lead().ID == msg.lead.ID {
			m.drawer.Open(msg.lead)
		}
		return m, m.Reload()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.search, cmd = m.search.Update(msg)
	case focusNotes:
		m.notes, cmd = m.notes.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	switch m.focus {
	case focusHelp:
		m.help.Hide()
		m.focus = focusList
		return nil
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusStagePicker:
		m.handleStagePickerKey(msg.String())
		return nil
	case focusDrawer:
		return m.handleDrawerKey(msg)
	case focusNotes:
		return m.handleNotesKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q":
		return tea.Quit
	case "?":
		m.help.Show()
		m.focus = focusHelp
		return nil
	case "/":
		m.focus = focusSearch
		m.view = viewList
		return m.search.Focus()
	case "esc":
		m.view = viewList
		m.statusMsg = ""
		return nil
	case "s":
		next := m.vm.Query().SortBy.Next()
		m.vm.SetSort(next)
		m.refresh()
		m.statusMsg = "Sorted by " + string(next)
		return nil
	case "f":
		m.stagePicker = NewStageSelectorModel(analysis.CountByStage(m.vm.Raw()), m.vm.Query().Stage, m.theme)
		m.stagePicker.SetSize(m.width, m.height-chromeHeight)
		m.focus = focusStagePicker
		return nil
	case "a":
		m.vm.SetStageFilter(model.StageAll)
		m.refresh()
		return nil
	case "r":
		return m.Reload()
	case "b":
		if m.view == viewBoard {
			m.view = viewList
		} else {
			m.view = viewBoard
		}
		return nil
	case "enter":
		if lead, ok := m.selectedLead(); ok {
			m.drawer.Open(lead)
			m.focus = focusDrawer
		}
		return nil
	}

	if m.view == viewBoard {
		m.board.HandleKey(key)
		return nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter":
		m.search.Blur()
		m.focus = focusList
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.vm.SetSearch(v)
		m.refresh()
	}
	return cmd
}

func (m *Model) handleStagePickerKey(key string) {
	m.stagePicker.HandleKey(key)
	switch {
	case m.stagePicker.IsConfirmed():
		if item := m.stagePicker.SelectedItem(); item != nil {
			m.vm.SetStageFilter(item.Stage)
			m.refresh()
		}
		m.focus = focusList
	case m.stagePicker.IsCancelled():
		m.focus = focusList
	}
}

func (m *Model) handleDrawerKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "enter":
		m.drawer.Close()
		m.focus = focusList
		return nil
	case "c":
		m.copyEmail(m.drawer.Lead())
		return nil
	case "n":
		return m.openNotes(m.drawer.Lead())
	}
	var cmd tea.Cmd
	m.drawer, cmd = m.drawer.Update(msg)
	return cmd
}

func (m *Model) handleNotesKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)

	back := focusList
	if m.drawer.IsVisible() {
		back = focusDrawer
	}
	switch {
	case m.notes.IsCancelled():
		m.focus = back
		return nil
	case m.notes.IsSubmitted():
		m.focus = back
		if !m.notes.Changed() {
			m.statusMsg = "Notes unchanged"
			return nil
		}
		m.statusMsg = "Saving notes..."
		return m.saveNotes(m.notes.LeadID(), m.notes.LeadUpdate())
	}
	return cmd
}

func (m *Model) openNotes(lead model.Lead) tea.Cmd {
	if m.updater == nil {
		m.statusMsg = "Notes are read-only for this source"
		return nil
	}
	m.notes = NewNoteInputModel(lead, m.theme)
	m.notes.SetSize(m.width, m.height-chromeHeight)
	m.focus = focusNotes
	return m.notes.Init()
}

func (m *Model) saveNotes(id string, update model.LeadUpdate) tea.Cmd {
	updater, ctx, logger := m.updater, m.ctx, m.logger
	return func() tea.Msg {
		lead, err := updater.UpdateLead(ctx, id, update)
		if err != nil {
			logger.Warn("save notes failed", zap.String("lead", id), zap.Error(err))
		}
		return notesSavedMsg{lead: lead, err: err}
	}
}

func (m *Model) copyEmail(lead model.Lead) {
	if lead.Email == "" {
		m.statusMsg = "No email to copy"
		return
	}
	if err := clipboard.WriteAll(lead.Email); err != nil {
		m.errMsg = fmt.Sprintf("Clipboard error: %v", err)
		return
	}
	m.statusMsg = "Copied " + lead.Email
}

func (m *Model) selectedLead() (model.Lead, bool) {
	if m.view == viewBoard {
		return m.board.Selected()
	}
	item, ok := m.list.SelectedItem().(LeadItem)
	if !ok {
		return model.Lead{}, false
	}
	return item.Lead, true
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		m.renderHeader(),
		RenderStatsBoxes(m.vm.Stats(), m.width, m.theme),
		RenderValueLine(m.vm.ValueSummary(), m.theme),
		m.renderBody(),
		m.renderStatusLine(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	t := m.theme
	title := t.Renderer.NewStyle().Bold(true).Foreground(t.Primary).Render("LeadView")

	q := m.vm.Query()
	parts := []string{
		fmt.Sprintf("%d/%d leads", len(m.vm.Filtered()), m.vm.Stats().Total),
		"sort: " + string(q.SortBy),
		"stage: " + q.Stage,
	}
	if m.source != "" {
		parts = append([]string{m.source}, parts...)
	}
	meta := t.Renderer.NewStyle().Foreground(t.Subtext).Render(strings.Join(parts, " • "))

	header := title + "  " + meta
	if m.loading > 0 {
		header += "  " + m.spinner.View()
	}
	return header
}

func (m *Model) renderBody() string {
	bodyHeight := m.height - chromeHeight
	if bodyHeight < MinContentHeight {
		bodyHeight = MinContentHeight
	}
	t := m.theme

	switch m.focus {
	case focusHelp:
		return m.help.View()
	case focusStagePicker:
		return m.stagePicker.View()
	case focusDrawer:
		return m.drawer.View()
	case focusNotes:
		return m.notes.View()
	}

	if !m.vm.HasData() {
		msg := "No leads loaded"
		if m.loading > 0 {
			msg = m.spinner.View() + " Loading leads..."
		}
		return lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			t.Renderer.NewStyle().Foreground(t.Subtext).Render(msg))
	}
	if m.view == viewBoard {
		return m.board.View()
	}
	if len(m.vm.Filtered()) == 0 {
		return lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).Render("No leads match the current search and stage"))
	}
	if m.width >= BreakpointMedium {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.renderStagePanel(bodyHeight))
	}
	return m.list.View()
}

// renderStagePanel shows the stage distribution of the whole collection next
// to the list.
func (m *Model) renderStagePanel(height int) string {
	t := m.theme
	title := t.Renderer.NewStyle().Bold(true).Foreground(t.Secondary).Render("Pipeline")
	lines := append([]string{title, RenderDivider(StagePanelWidth - 2)},
		RenderStageBars(analysis.CountByStage(m.vm.Raw()), t)...)
	return t.Renderer.NewStyle().
		Width(StagePanelWidth).
		MaxHeight(height).
		PaddingLeft(1).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatusLine() string {
	t := m.theme
	switch {
	case m.errMsg != "":
		return t.Renderer.NewStyle().Foreground(t.Danger).Render("✗ " + m.errMsg)
	case m.statusMsg != "":
		return t.Renderer.NewStyle().Foreground(t.Success).Render(m.statusMsg)
	}
	return ""
}

func (m *Model) renderFooter() string {
	if m.focus == focusSearch || m.search.Value() != "" {
		return m.search.View()
	}
	return m.theme.Renderer.NewStyle().Faint(true).
		Render("/ search • f stage • s sort • b board • enter details • r reload • ? help • q quit")
}
