package ui

// Layout breakpoints.
const (
	// BreakpointNarrow is the width below which list rows drop the company column.
	BreakpointNarrow = 80

	// BreakpointMedium is the width at which the list gains the stage panel.
	BreakpointMedium = 100
)

// Box and panel dimension constraints.
const (
	MinBoxWidth       = 20
	MinContentHeight  = 5
	StatsPanelPadding = 4
	StagePanelWidth   = 34

	// rows used by header, stats boxes, value line, status line and footer
	chromeHeight = 7
)

// listWidth is the width left for the lead list once the stage panel is placed.
func listWidth(total int) int {
	if total >= BreakpointMedium {
		return total - StagePanelWidth
	}
	return total
}
