package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/merchdeck/merchdeck/internal/workbench"
)

func TestBreakpoints(t *testing.T) {
	assert.Equal(t, BreakpointMobile, BreakpointFor(40))
	assert.Equal(t, BreakpointMobile, BreakpointFor(79))
	assert.Equal(t, BreakpointTablet, BreakpointFor(80))
	assert.Equal(t, BreakpointTablet, BreakpointFor(119))
	assert.Equal(t, BreakpointDesktop, BreakpointFor(120))
}

func TestShrinkToMobileMakesSidebarTemporary(t *testing.T) {
	// Shrinking a wide terminal down to phone-like proportions turns
	// the docked sidebar into a closed overlay.
	o := NewOrchestrator(true, false)
	o.SetBreakpoint(BreakpointDesktop)
	assert.True(t, o.Sidebar().IsOpen)
	assert.Equal(t, sidebarFullWidth, o.SidebarWidth())

	o.SetBreakpoint(BreakpointMobile)
	state := o.Sidebar()
	assert.True(t, state.IsTemporary)
	assert.False(t, state.IsOpen)
	assert.Zero(t, o.SidebarWidth())

	// Opening the overlay still reserves no layout width.
	o.Toggle()
	assert.True(t, o.Sidebar().IsOpen)
	assert.Zero(t, o.SidebarWidth())

	// A route change closes the overlay.
	o.CloseOverlay()
	assert.False(t, o.Sidebar().IsOpen)
}

func TestToggleOnDesktop(t *testing.T) {
	o := NewOrchestrator(true, false)

	// Open and expanded: toggle collapses.
	o.Toggle()
	assert.True(t, o.Sidebar().IsCollapsed)
	assert.Equal(t, sidebarCollapsedWidth, o.SidebarWidth())

	// Toggle expands again.
	o.Toggle()
	assert.False(t, o.Sidebar().IsCollapsed)
	assert.Equal(t, sidebarFullWidth, o.SidebarWidth())
}

func TestToggleOpensClosedDesktopSidebar(t *testing.T) {
	o := NewOrchestrator(false, false)
	assert.False(t, o.Sidebar().IsOpen)
	o.Toggle()
	assert.True(t, o.Sidebar().IsOpen)
	assert.False(t, o.Sidebar().IsCollapsed)
}

func TestCloseOverlayLeavesDockedSidebarAlone(t *testing.T) {
	o := NewOrchestrator(true, false)
	o.CloseOverlay()
	assert.True(t, o.Sidebar().IsOpen)
}

func TestDimensionsEquation(t *testing.T) {
	o := NewOrchestrator(true, false)
	d := o.DimensionsFor(140, 40)

	assert.Equal(t, 40-d.HeaderHeight-d.FooterHeight-d.TabHeight, d.ContentHeight)
	assert.Equal(t, 140-d.SidebarWidth, d.ContentWidth)

	// Tiny terminals clamp instead of going negative.
	d = o.DimensionsFor(10, 2)
	assert.Zero(t, d.ContentHeight)
}

func TestMetricsDebounceKeepsLatest(t *testing.T) {
	var m metrics
	_ = m.observe(tea.WindowSizeMsg{Width: 100, Height: 40})
	first := layoutAppliedMsg{width: 100, height: 40, seq: 1}
	_ = m.observe(tea.WindowSizeMsg{Width: 90, Height: 40})

	// The first apply is superseded by the second observation.
	assert.True(t, m.stale(first))
	assert.False(t, m.stale(layoutAppliedMsg{width: 90, height: 40, seq: 2}))
}

func TestAspectFlipDetection(t *testing.T) {
	assert.True(t, aspectFlipped(100, 40, 30, 60))
	assert.False(t, aspectFlipped(100, 40, 90, 40))
}

func TestTabBarOverflow(t *testing.T) {
	tb := newTabBar(3)
	tb.SetWidth(200)

	tabs := []workbench.Tab{
		{ID: "dashboard", Label: "Dashboard"},
		{ID: "a", Label: "A"},
		{ID: "b", Label: "B"},
		{ID: "c", Label: "C"},
		{ID: "d", Label: "D"},
	}

	out := tb.Render(tabs, "d")
	assert.Contains(t, out, "Dashboard", "home stays visible in overflow")
	assert.Contains(t, out, "D")
	assert.Contains(t, out, "more")
}
