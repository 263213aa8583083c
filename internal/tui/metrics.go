package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// resizeDebounce coalesces resize bursts; only the trailing size is
	// applied.
	resizeDebounce = 150 * time.Millisecond
	// aspectSettle gives an orientation flip (portrait/landscape swap)
	// time to finish before geometry is recomputed.
	aspectSettle = 300 * time.Millisecond
)

// layoutAppliedMsg carries a debounced terminal size back into Update.
type layoutAppliedMsg struct {
	width  int
	height int
	seq    int
}

// metrics debounces tea.WindowSizeMsg so layout recomputes once per
// burst instead of once per event.
type metrics struct {
	width  int
	height int
	seq    int
}

// observe records a new raw size and schedules the debounced apply.
// Flipping between portrait-ish and landscape-ish proportions waits
// longer so intermediate sizes never land.
func (m *metrics) observe(msg tea.WindowSizeMsg) tea.Cmd {
	delay := resizeDebounce
	if m.width > 0 && m.height > 0 && aspectFlipped(m.width, m.height, msg.Width, msg.Height) {
		delay = aspectSettle
	}
	m.width = msg.Width
	m.height = msg.Height
	m.seq++

	seq := m.seq
	width, height := msg.Width, msg.Height
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return layoutAppliedMsg{width: width, height: height, seq: seq}
	})
}

// stale reports whether a debounced apply was superseded by a newer
// observation.
func (m *metrics) stale(msg layoutAppliedMsg) bool {
	return msg.seq != m.seq
}

func aspectFlipped(oldW, oldH, newW, newH int) bool {
	return (oldW >= oldH) != (newW >= newH)
}
