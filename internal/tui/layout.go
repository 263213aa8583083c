package tui

// Breakpoint buckets the terminal width the way the web app bucketed
// the viewport: narrow terminals behave like phones.
type Breakpoint int

const (
	BreakpointMobile Breakpoint = iota
	BreakpointTablet
	BreakpointDesktop
)

const (
	mobileMaxCols = 80
	tabletMaxCols = 120

	sidebarFullWidth      = 28
	sidebarCollapsedWidth = 6

	headerHeight = 1
	tabBarHeight = 2
	footerHeight = 1
)

// BreakpointFor classifies a terminal width.
func BreakpointFor(width int) Breakpoint {
	switch {
	case width < mobileMaxCols:
		return BreakpointMobile
	case width < tabletMaxCols:
		return BreakpointTablet
	default:
		return BreakpointDesktop
	}
}

func (b Breakpoint) String() string {
	switch b {
	case BreakpointMobile:
		return "mobile"
	case BreakpointTablet:
		return "tablet"
	default:
		return "desktop"
	}
}

// SidebarState is the orchestrator's output.
type SidebarState struct {
	IsOpen      bool
	IsCollapsed bool
	IsTemporary bool
}

// Dimensions is the published layout geometry. Every consumer reads
// from here rather than recomputing from the window size.
type Dimensions struct {
	SidebarWidth   int
	HeaderHeight   int
	FooterHeight   int
	TabHeight      int
	ViewportHeight int
	ViewportWidth  int
	ContentHeight  int
	ContentWidth   int
}

// Orchestrator owns the sidebar state. It folds the breakpoint and the
// user's persisted intent (pinned, collapsed) into a single state that
// the view renders from.
type Orchestrator struct {
	breakpoint Breakpoint
	sidebar    SidebarState
}

// NewOrchestrator seeds sidebar state from persisted intent at desktop
// defaults; the first window size message corrects the breakpoint.
func NewOrchestrator(pinned, collapsed bool) *Orchestrator {
	return &Orchestrator{
		breakpoint: BreakpointDesktop,
		sidebar:    SidebarState{IsOpen: pinned, IsCollapsed: collapsed},
	}
}

// SetBreakpoint applies a breakpoint change. Entering mobile makes the
// sidebar a closed overlay; leaving mobile restores a docked sidebar.
func (o *Orchestrator) SetBreakpoint(b Breakpoint) {
	if b == o.breakpoint {
		return
	}
	o.breakpoint = b
	if b == BreakpointMobile {
		o.sidebar.IsTemporary = true
		o.sidebar.IsOpen = false
	} else {
		o.sidebar.IsTemporary = false
	}
}

// Toggle flips the sidebar. On mobile it opens or closes the overlay;
// on wider terminals it collapses an open sidebar and opens a closed
// one.
func (o *Orchestrator) Toggle() {
	if o.breakpoint == BreakpointMobile {
		o.sidebar.IsOpen = !o.sidebar.IsOpen
		return
	}
	if o.sidebar.IsOpen {
		o.sidebar.IsCollapsed = !o.sidebar.IsCollapsed
	} else {
		o.sidebar.IsOpen = true
	}
}

// CloseOverlay closes a temporary sidebar. Route changes and backdrop
// interaction both land here; docked sidebars are unaffected.
func (o *Orchestrator) CloseOverlay() {
	if o.sidebar.IsTemporary {
		o.sidebar.IsOpen = false
	}
}

// Sidebar returns the current sidebar state.
func (o *Orchestrator) Sidebar() SidebarState { return o.sidebar }

// Breakpoint returns the current breakpoint.
func (o *Orchestrator) Breakpoint() Breakpoint { return o.breakpoint }

// SidebarWidth is the columns the sidebar reserves in the layout. A
// temporary (overlay) sidebar reserves nothing even while open.
func (o *Orchestrator) SidebarWidth() int {
	if o.sidebar.IsTemporary || !o.sidebar.IsOpen {
		return 0
	}
	if o.sidebar.IsCollapsed {
		return sidebarCollapsedWidth
	}
	return sidebarFullWidth
}

// DimensionsFor computes the full geometry for a terminal size.
func (o *Orchestrator) DimensionsFor(width, height int) Dimensions {
	d := Dimensions{
		SidebarWidth:   o.SidebarWidth(),
		HeaderHeight:   headerHeight,
		FooterHeight:   footerHeight,
		TabHeight:      tabBarHeight,
		ViewportHeight: height,
		ViewportWidth:  width,
	}
	d.ContentHeight = height - d.HeaderHeight - d.FooterHeight - d.TabHeight
	if d.ContentHeight < 0 {
		d.ContentHeight = 0
	}
	d.ContentWidth = width - d.SidebarWidth
	if d.ContentWidth < 0 {
		d.ContentWidth = 0
	}
	return d
}
