package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/merchdeck/merchdeck/internal/logging"
	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/merchdeck/merchdeck/internal/nav"
	"github.com/merchdeck/merchdeck/internal/workbench"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// focusArea is which region receives navigation keys.
type focusArea int

const (
	focusSidebar focusArea = iota
	focusContent
)

type authLoadedMsg struct{}

// Model is the root bubbletea model: layout chrome around the
// workbench, with the sidebar driving navigation.
type Model struct {
	tree      *menu.Tree
	wb        *workbench.Workbench
	rec       *nav.Reconciler
	orch      *Orchestrator
	metrics   metrics
	tabBar    *tabBar
	sidebar   *sidebar
	authSvc   *auth.Service
	bus       *events.EventBus
	translate menu.Translator

	dims         Dimensions
	focus        focusArea
	notification string
	quickOpen    bool
	quickQuery   string
	quickResults []menu.RankedDestination
	quickCursor  int
	loadAuth     func() (*auth.User, auth.License)
	initialPath  string
}

// Options wires a Model.
type Options struct {
	Tree        *menu.Tree
	Registry    *workbench.Registry
	Auth        *auth.Service
	Bus         *events.EventBus
	Translator  menu.Translator
	LoadAuth    func() (*auth.User, auth.License)
	InitialPath string
	Pinned      bool
	Collapsed   bool
}

// NewModel assembles the workbench, binding and reconciler. Menu or
// registry misconfiguration is fatal here, before the terminal is
// taken over.
func NewModel(opts Options) (*Model, error) {
	tr := opts.Translator
	if tr == nil {
		tr = menu.KeyTranslator
	}
	dests := opts.Tree.Flatten()

	wb, err := workbench.New(dests, opts.Registry, tr, workbench.WithBus(opts.Bus))
	if err != nil {
		return nil, err
	}

	m := &Model{
		tree:        opts.Tree,
		wb:          wb,
		orch:        NewOrchestrator(opts.Pinned, opts.Collapsed),
		tabBar:      newTabBar(wb.OverflowAt()),
		sidebar:     newSidebar(opts.Tree, opts.Auth, tr),
		authSvc:     opts.Auth,
		bus:         opts.Bus,
		translate:   tr,
		loadAuth:    opts.LoadAuth,
		initialPath: opts.InitialPath,
	}

	binding := nav.NewBinding(dests)
	m.rec = nav.NewReconciler(binding, menu.HomeID, m.allowed, nav.Hooks{
		Open: func(id string) error {
			return wb.OpenTab(id, workbench.OpenOptions{SkipNavigation: true})
		},
		Denied: func(path string, err error) {
			m.notification = fmt.Sprintf("cannot open %s: %v", path, err)
			logging.WithComponent("nav").Warn("navigation redirected", "path", path, "error", err)
		},
	})

	// UI-driven activation syncs the URL; URL-driven opens skip this.
	wb.SetOnActivate(func(id string, skipNavigation bool) {
		if !skipNavigation {
			m.rec.TabActivated(id)
		}
		// A route change closes a temporary sidebar.
		m.orch.CloseOverlay()
		if m.bus != nil {
			m.bus.Publish(events.Event{
				Type:   events.NavigationChanged,
				Source: "tui",
				Data:   map[string]interface{}{"id": id, "path": m.rec.CurrentPath()},
			})
		}
	})

	return m, nil
}

func (m *Model) allowed(id string) bool {
	if m.authSvc == nil {
		return true
	}
	return menu.AllowedID(m.tree, id, m.authSvc.User(), m.authSvc.License())
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.wb.InitActive()}
	if m.loadAuth != nil {
		loadAuth := m.loadAuth
		authSvc := m.authSvc
		cmds = append(cmds, func() tea.Msg {
			user, lic := loadAuth()
			authSvc.Load(user, lic)
			return authLoadedMsg{}
		})
		m.authSvc.BeginLoading()
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.metrics.observe(msg)

	case layoutAppliedMsg:
		if m.metrics.stale(msg) {
			return m, nil
		}
		m.applyLayout(msg.width, msg.height)
		return m, nil

	case authLoadedMsg:
		m.sidebar.Refresh()
		if m.initialPath != "" {
			m.rec.NavigateTo(m.initialPath)
			m.initialPath = ""
			return m, m.wb.InitActive()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Async pane results are delivered to whichever pane is waiting.
	return m, m.wb.Broadcast(msg)
}

func (m *Model) applyLayout(width, height int) {
	m.orch.SetBreakpoint(BreakpointFor(width))
	m.dims = m.orch.DimensionsFor(width, height)
	m.tabBar.SetWidth(width)
	m.sidebar.SetSize(m.dims.SidebarWidth, m.dims.ContentHeight)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quickOpen {
		return m.handleQuickOpenKey(msg)
	}
	if m.sidebar.Searching() {
		switch msg.String() {
		case "esc":
			m.sidebar.StopSearch()
			return m, nil
		case "enter", "up", "down":
			// fall through to navigation below
		default:
			return m, m.sidebar.Update(msg)
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		if msg.String() == "q" && m.focus == focusContent {
			break // panes may use plain letters
		}
		return m, tea.Quit

	case "ctrl+p":
		m.quickOpen = true
		m.quickQuery = ""
		m.quickCursor = 0
		m.quickResults = m.quickOpenResults("")
		return m, nil

	case "ctrl+b":
		m.orch.Toggle()
		m.dims = m.orch.DimensionsFor(m.dims.ViewportWidth, m.dims.ViewportHeight)
		m.sidebar.SetSize(m.dims.SidebarWidth, m.dims.ContentHeight)
		return m, nil

	case "tab":
		m.wb.CycleNext()
		return m, m.wb.InitActive()

	case "shift+tab":
		m.wb.CyclePrev()
		return m, m.wb.InitActive()

	case "ctrl+w":
		m.wb.CloseActive()
		return m, nil

	case "ctrl+s":
		if m.focus == focusSidebar {
			m.focus = focusContent
		} else {
			m.focus = focusSidebar
		}
		return m, nil

	case "/":
		if m.focus == focusSidebar {
			return m, m.sidebar.StartSearch()
		}
	}

	if m.focus == focusSidebar && m.orch.Sidebar().IsOpen {
		switch msg.String() {
		case "up", "k":
			m.sidebar.MoveUp()
			return m, nil
		case "down", "j":
			m.sidebar.MoveDown()
			return m, nil
		case "enter":
			if id, ok := m.sidebar.Select(); ok {
				return m, m.openFromUI(id)
			}
			return m, nil
		}
	}

	return m, m.wb.UpdateActive(msg)
}

// openFromUI opens a destination chosen in the sidebar or palette.
func (m *Model) openFromUI(id string) tea.Cmd {
	if !m.allowed(id) {
		m.notification = fmt.Sprintf("no access to %s", id)
		if m.bus != nil {
			m.bus.Publish(events.Event{
				Type:   events.PermissionDenied,
				Source: "tui",
				Data:   map[string]interface{}{"id": id},
			})
		}
		return nil
	}
	if err := m.wb.OpenTab(id, workbench.OpenOptions{}); err != nil {
		m.notification = err.Error()
		return nil
	}
	m.focus = focusContent
	return m.wb.InitActive()
}

func (m *Model) quickOpenResults(query string) []menu.RankedDestination {
	dests := m.tree.Flatten()
	allowed := make([]menu.Destination, 0, len(dests))
	for _, d := range dests {
		if m.allowed(d.ID) {
			allowed = append(allowed, d)
		}
	}
	return menu.QuickOpen(allowed, query, m.translate)
}

func (m *Model) handleQuickOpenKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+p":
		m.quickOpen = false
		return m, nil
	case "enter":
		m.quickOpen = false
		if m.quickCursor < len(m.quickResults) {
			return m, m.openFromUI(m.quickResults[m.quickCursor].Destination.ID)
		}
		return m, nil
	case "up":
		if m.quickCursor > 0 {
			m.quickCursor--
		}
		return m, nil
	case "down":
		if m.quickCursor < len(m.quickResults)-1 {
			m.quickCursor++
		}
		return m, nil
	case "backspace":
		if len(m.quickQuery) > 0 {
			m.quickQuery = m.quickQuery[:len(m.quickQuery)-1]
			m.quickResults = m.quickOpenResults(m.quickQuery)
			m.quickCursor = 0
		}
		return m, nil
	default:
		if len(msg.Runes) == 1 {
			m.quickQuery += string(msg.Runes)
			m.quickResults = m.quickOpenResults(m.quickQuery)
			m.quickCursor = 0
		}
		return m, nil
	}
}

func (m *Model) View() string {
	if m.dims.ViewportWidth == 0 {
		return "starting..."
	}

	header := m.renderHeader()
	tabs := m.tabBar.Render(m.wb.Tabs(), m.wb.ActiveID())
	content := m.wb.ViewActive(m.dims.ContentWidth, m.dims.ContentHeight)
	footer := m.renderFooter()

	main := content
	if side := m.sidebar.View(m.orch.Sidebar()); side != "" {
		if m.orch.Sidebar().IsTemporary {
			// Overlay: the sidebar covers content instead of reserving
			// columns.
			main = side
		} else {
			main = lipgloss.JoinHorizontal(lipgloss.Top, side, content)
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, tabs, main, footer)
	if m.quickOpen {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderQuickOpen(), body)
	}
	return body
}

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("53")).
		Width(m.dims.ViewportWidth)

	title := "MerchDeck"
	if m.dims.ViewportWidth >= mobileMaxCols {
		title = "MerchDeck — Commerce Admin"
	}
	if m.authSvc != nil && m.authSvc.Loading() {
		title += "  (loading permissions...)"
	}
	return style.Render(title)
}

func (m *Model) renderFooter() string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(m.dims.ViewportWidth)
	if m.notification != "" {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(m.notification)
		return dim.Render(m.rec.CurrentPath() + "  " + note)
	}
	help := "ctrl+b sidebar  ctrl+p jump  tab cycle  ctrl+w close  q quit"
	if m.dims.ViewportWidth < mobileMaxCols {
		help = "^b ^p ^w q"
	}
	return dim.Render(m.rec.CurrentPath() + "  " + help)
}

func (m *Model) renderQuickOpen() string {
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("226")).
		Padding(0, 1).
		Width(minInt(60, m.dims.ViewportWidth-4))

	out := "jump to: " + m.quickQuery + "\n"
	limit := minInt(8, len(m.quickResults))
	for i := 0; i < limit; i++ {
		label := m.translate(m.quickResults[i].Destination.LabelKey)
		if i == m.quickCursor {
			out += "> " + label + "\n"
		} else {
			out += "  " + label + "\n"
		}
	}
	return box.Render(out)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
