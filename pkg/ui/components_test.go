package ui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/model"
)

func TestStageSelector_Items(t *testing.T) {
	counts := []analysis.StageCount{
		{Stage: "new", Count: 2},
		{Stage: "qualified", Count: 1},
		{Stage: "", Count: 4},
		{Stage: "lost", Count: 3},
	}
	m := NewStageSelectorModel(counts, "lost", DefaultTheme(nil))

	if m.ItemCount() != 4 {
		t.Fatalf("ItemCount = %d, want all + 3 stages", m.ItemCount())
	}
	if m.allItems[0].Stage != "all" || m.allItems[0].Count != 10 {
		t.Errorf("first item = %+v", m.allItems[0])
	}
	if m.selectedIndex != 3 {
		t.Errorf("cursor should start on the current stage, got %d", m.selectedIndex)
	}
}

func TestStageSelector_FuzzyAndNavigation(t *testing.T) {
	counts := analysis.CountByStage([]model.Lead{{Status: "new"}, {Status: "proposal"}})
	m := NewStageSelectorModel(counts, "all", DefaultTheme(nil))

	for _, k := range []string{"p", "r", "o"} {
		if !m.HandleKey(k) {
			t.Fatalf("key %q not consumed", k)
		}
	}
	if m.SearchValue() != "pro" || m.ItemCount() != 1 {
		t.Fatalf("search %q matched %d items", m.SearchValue(), m.ItemCount())
	}
	m.HandleKey("backspace")
	m.HandleKey("backspace")
	m.HandleKey("backspace")
	if m.ItemCount() != 6 {
		t.Errorf("clearing search should restore all items, got %d", m.ItemCount())
	}

	m.HandleKey("down")
	m.HandleKey("down")
	m.HandleKey("up")
	m.HandleKey("enter")
	if !m.IsConfirmed() || m.SelectedItem() == nil || m.SelectedItem().Stage != "new" {
		t.Errorf("selected = %+v", m.SelectedItem())
	}
	if view := m.View(); !strings.Contains(view, "Filter by Stage") {
		t.Errorf("view missing title")
	}
}

func TestStageSelector_NoMatches(t *testing.T) {
	m := NewStageSelectorModel(nil, "all", DefaultTheme(nil))
	m.HandleKey("z")
	m.HandleKey("z")
	m.HandleKey("enter")
	if m.IsConfirmed() {
		t.Errorf("enter with no matches should not confirm")
	}
	if !strings.Contains(m.View(), "No matching stages") {
		t.Errorf("empty state not rendered")
	}
}

func TestLeadMarkdown_Placeholders(t *testing.T) {
	md := LeadMarkdown(model.Lead{ID: "x"})
	for _, want := range []string{"Unnamed Lead", "No email", "No phone", "`new`", "`medium`", "No notes yet"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestLeadMarkdown_Full(t *testing.T) {
	lead := model.Lead{
		FirstName: "Jane", LastName: "Doe", Title: "CTO", Company: "Acme_Co",
		Email: "jane@acme.io", Phone: "(650) 253-0000", Status: "proposal", Priority: "high",
		Value: 1500, Notes: "Wants a demo",
	}
	lead.CreatedAt.Time = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	md := LeadMarkdown(lead)
	for _, want := range []string{"# Jane Doe", `CTO at Acme\_Co`, "+1 650-253-0000", "`proposal`", "`high`", "$1.5k", "Wants a demo", "Created 2025-01-02"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestDrawer_RendersWithGlamour(t *testing.T) {
	d := NewDrawerModel("notty", DefaultTheme(nil))
	d.SetSize(80, 30)
	d.Open(model.Lead{FirstName: "Jane", Email: "jane@acme.io"})
	view := d.View()
	if !strings.Contains(view, "Jane") || !strings.Contains(view, "copy email") {
		t.Errorf("drawer view:\n%s", view)
	}
	d.Close()
	if d.View() != "" {
		t.Errorf("closed drawer should render nothing")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much too long", 6, "much …"},
		{"日本語テキスト", 7, "日本語…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if runewidth.StringWidth(got) > tt.width && tt.width > 0 {
			t.Errorf("truncate(%q, %d) is %d cells wide", tt.in, tt.width, runewidth.StringWidth(got))
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:         "$0",
		950:       "$950",
		1500:      "$1.5k",
		12500:     "$12k",
		3_200_000: "$3.2M",
	}
	for in, want := range tests {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestLeadDelegate_Row(t *testing.T) {
	d := LeadDelegate{Theme: DefaultTheme(nil)}
	row := d.renderRow(LeadItem{Lead: model.Lead{FirstName: "Jane", LastName: "Doe", Company: "Acme", Value: 950}}, 100, false)
	for _, want := range []string{"Jane Doe", "Acme", "$950", "MED", "NEW"} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %q: %q", want, row)
		}
	}
	narrow := d.renderRow(LeadItem{Lead: model.Lead{FirstName: "Jane", Company: "Acme"}}, 60, true)
	if strings.Contains(narrow, "Acme") {
		t.Errorf("narrow row should drop the company column: %q", narrow)
	}
}

func TestBoard_Navigation(t *testing.T) {
	b := NewBoardModel(DefaultTheme(nil))
	b.SetSize(120, 20)
	if b.HandleKey("l") {
		t.Errorf("empty board should ignore keys")
	}
	b.SetGroups(analysis.GroupByStage([]model.Lead{
		{ID: "a", Status: "new"}, {ID: "b"}, {ID: "c", Status: "won"},
	}))

	if lead, ok := b.Selected(); !ok || lead.ID != "a" {
		t.Errorf("Selected() = %v, %v", lead.ID, ok)
	}
	b.HandleKey("j")
	if lead, _ := b.Selected(); lead.ID != "b" {
		t.Errorf("after j: %s", lead.ID)
	}
	b.HandleKey("l")
	if _, ok := b.Selected(); ok || b.Column() != "contacted" {
		t.Errorf("contacted column should be empty")
	}
	for i := 0; i < 10; i++ {
		b.HandleKey("l")
	}
	if b.Column() != "won" {
		t.Errorf("column = %q", b.Column())
	}
	if view := b.View(); !strings.Contains(view, "WON (1)") {
		t.Errorf("board view missing column header")
	}

	// shrinking the data clamps the cursor
	b.SetGroups(analysis.GroupByStage([]model.Lead{{ID: "z"}}))
	b.HandleKey("h")
	b.HandleKey("h")
	b.HandleKey("h")
	b.HandleKey("h")
	if lead, ok := b.Selected(); !ok || lead.ID != "z" {
		t.Errorf("Selected() after shrink = %v, %v", lead.ID, ok)
	}
}

type probeModel struct{}

func (probeModel) Init() tea.Cmd { return nil }

func (p probeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if d, ok := msg.(dispatchMsg); ok {
		d.fn()
		return p, tea.Quit
	}
	return p, nil
}

func (probeModel) View() string { return "" }

func TestProgramDispatcher_DeliversOnProgramLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d := NewProgramDispatcher()
	ran := make(chan struct{})
	d.Post(func() { close(ran) }) // held until Attach

	p := tea.NewProgram(probeModel{},
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	d.Attach(p)

	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	select {
	case <-ran:
	default:
		t.Fatal("posted function never ran")
	}

	// after exit, Post must not block
	done := make(chan struct{})
	go func() {
		d.Post(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Post blocked after the program exited")
	}
}
