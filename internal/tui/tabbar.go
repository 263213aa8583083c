package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/workbench"
)

// tabBar renders the workbench's open set as a horizontal strip.
type tabBar struct {
	width      int
	overflowAt int

	activeStyle    lipgloss.Style
	inactiveStyle  lipgloss.Style
	separatorStyle lipgloss.Style
	overflowStyle  lipgloss.Style
}

func newTabBar(overflowAt int) *tabBar {
	return &tabBar{
		overflowAt: overflowAt,
		activeStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		inactiveStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1),
		separatorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		overflowStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("111")).
			Padding(0, 1),
	}
}

func (tb *tabBar) SetWidth(width int) {
	tb.width = width
}

// Render draws the tab strip. Beyond the overflow threshold the active
// tab's neighborhood is shown and the remainder is summarized.
func (tb *tabBar) Render(tabs []workbench.Tab, activeID string) string {
	visible := tabs
	hidden := 0
	if tb.overflowAt > 0 && len(tabs) > tb.overflowAt {
		visible, hidden = tb.overflowWindow(tabs, activeID)
	}

	compact := tb.width < mobileMaxCols
	var parts []string
	for i, tab := range visible {
		label := tab.Label
		if compact && len(label) > 8 {
			label = label[:7] + "…"
		}
		if tab.ID == activeID {
			parts = append(parts, tb.activeStyle.Render("▶ "+label))
		} else {
			parts = append(parts, tb.inactiveStyle.Render(label))
		}
		if i < len(visible)-1 {
			sep := " │ "
			if compact {
				sep = "│"
			}
			parts = append(parts, tb.separatorStyle.Render(sep))
		}
	}
	if hidden > 0 {
		parts = append(parts, tb.overflowStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}

	strip := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return lipgloss.NewStyle().
		Width(tb.width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		BorderForeground(lipgloss.Color("240")).
		Render(strip)
}

// overflowWindow keeps the home tab, the active tab and its nearest
// neighbors visible.
func (tb *tabBar) overflowWindow(tabs []workbench.Tab, activeID string) ([]workbench.Tab, int) {
	activeIdx := 0
	for i, tab := range tabs {
		if tab.ID == activeID {
			activeIdx = i
			break
		}
	}

	budget := tb.overflowAt
	start := activeIdx - budget/2
	if start < 0 {
		start = 0
	}
	end := start + budget
	if end > len(tabs) {
		end = len(tabs)
		start = end - budget
		if start < 0 {
			start = 0
		}
	}

	window := make([]workbench.Tab, 0, budget+1)
	if start > 0 {
		// Home is always reachable even when scrolled away.
		window = append(window, tabs[0])
	}
	window = append(window, tabs[start:end]...)
	return window, len(tabs) - len(window)
}
