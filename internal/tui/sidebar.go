package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/merchdeck/merchdeck/internal/menu"
)

// sidebarRow is one rendered line of the menu tree.
type sidebarRow struct {
	node      menu.Node
	depth     int
	expanded  bool
	highlight menu.MatchRange
	hasMatch  bool
}

// sidebar renders the filtered menu tree with inline search.
type sidebar struct {
	tree      *menu.Tree
	authSvc   *auth.Service
	translate menu.Translator

	search    textinput.Model
	searching bool
	expanded  map[string]bool
	cursor    int
	rows      []sidebarRow

	width  int
	height int

	titleStyle     lipgloss.Style
	categoryStyle  lipgloss.Style
	leafStyle      lipgloss.Style
	selectedStyle  lipgloss.Style
	highlightStyle lipgloss.Style
	dimStyle       lipgloss.Style
}

func newSidebar(tree *menu.Tree, authSvc *auth.Service, tr menu.Translator) *sidebar {
	search := textinput.New()
	search.Placeholder = "search menu"
	search.Prompt = "/ "
	search.CharLimit = 64

	s := &sidebar{
		tree:      tree,
		authSvc:   authSvc,
		translate: tr,
		search:    search,
		expanded:  make(map[string]bool),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")),
		categoryStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("111")),
		leafStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("226")),
		highlightStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("201")).
			Underline(true),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}

	for _, root := range tree.Roots() {
		if root.ExpandedByDefault {
			s.expanded[root.ID] = true
		}
	}
	s.refresh()
	return s
}

func (s *sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// StartSearch focuses the search field.
func (s *sidebar) StartSearch() tea.Cmd {
	s.searching = true
	return s.search.Focus()
}

// StopSearch clears the query and reverts expansion to user state.
func (s *sidebar) StopSearch() {
	s.searching = false
	s.search.SetValue("")
	s.search.Blur()
	s.refresh()
}

func (s *sidebar) Searching() bool { return s.searching }

// Update feeds key input into the search field while it is focused.
func (s *sidebar) Update(msg tea.Msg) tea.Cmd {
	if !s.searching {
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.refresh()
	return cmd
}

// Refresh recomputes visible rows; call after permission or license
// changes.
func (s *sidebar) Refresh() { s.refresh() }

func (s *sidebar) refresh() {
	nodes := menu.Filter(s.tree.Roots(), s.authSvc.User(), s.authSvc.License())
	result := menu.Search(nodes, s.search.Value(), s.translate)

	forced := s.search.Value() != ""
	s.rows = s.rows[:0]
	var visit func(nodes []menu.Node, depth int)
	visit = func(nodes []menu.Node, depth int) {
		for _, n := range nodes {
			row := sidebarRow{node: n, depth: depth}
			if hl, ok := result.Highlights[n.ID]; ok {
				row.highlight = hl
				row.hasMatch = true
			}
			if !n.IsLeaf() {
				row.expanded = s.expanded[n.ID] || (forced && result.Expanded[n.ID])
				s.rows = append(s.rows, row)
				if row.expanded {
					visit(n.Children, depth+1)
				}
				continue
			}
			s.rows = append(s.rows, row)
		}
	}
	visit(result.Nodes, 0)

	if s.cursor >= len(s.rows) {
		s.cursor = len(s.rows) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *sidebar) MoveDown() {
	if s.cursor < len(s.rows)-1 {
		s.cursor++
	}
}

// Select acts on the cursor row. Interior nodes toggle expansion;
// leaves return their destination id.
func (s *sidebar) Select() (string, bool) {
	if s.cursor >= len(s.rows) {
		return "", false
	}
	row := s.rows[s.cursor]
	if !row.node.IsLeaf() {
		s.expanded[row.node.ID] = !s.expanded[row.node.ID]
		s.refresh()
		return "", false
	}
	return row.node.ID, true
}

// View renders the sidebar at the given collapsed state.
func (s *sidebar) View(state SidebarState) string {
	if !state.IsOpen {
		return ""
	}
	width := sidebarFullWidth
	if state.IsCollapsed && !state.IsTemporary {
		return s.viewCollapsed()
	}

	var b strings.Builder
	b.WriteString(s.titleStyle.Render("MerchDeck"))
	b.WriteString("\n")

	// Until permissions arrive the menu would flicker between states;
	// show a placeholder instead.
	if !s.authSvc.Initialized() {
		b.WriteString(s.dimStyle.Render("loading menu..."))
		return s.frame(b.String(), width)
	}

	if s.searching || s.search.Value() != "" {
		b.WriteString(s.search.View())
		b.WriteString("\n")
	}

	for i, row := range s.rows {
		b.WriteString(s.renderRow(row, i == s.cursor, width))
		b.WriteString("\n")
	}
	return s.frame(b.String(), width)
}

func (s *sidebar) viewCollapsed() string {
	var b strings.Builder
	b.WriteString(s.titleStyle.Render("MD"))
	b.WriteString("\n")
	for i, row := range s.rows {
		if row.node.IsLeaf() {
			continue
		}
		icon := row.node.Icon
		if icon == "" {
			icon = "·"
		}
		if i == s.cursor {
			icon = s.selectedStyle.Render(icon)
		}
		b.WriteString(icon)
		b.WriteString("\n")
	}
	return s.frame(b.String(), sidebarCollapsedWidth)
}

func (s *sidebar) renderRow(row sidebarRow, selected bool, width int) string {
	indent := strings.Repeat("  ", row.depth)
	label := s.translate(row.node.LabelKey)

	if !row.node.IsLeaf() {
		marker := "▸"
		if row.expanded {
			marker = "▾"
		}
		line := indent + marker + " " + label
		return s.categoryStyle.Render(line)
	}

	if row.hasMatch && row.highlight.End <= len(label) {
		label = label[:row.highlight.Start] +
			s.highlightStyle.Render(label[row.highlight.Start:row.highlight.End]) +
			label[row.highlight.End:]
	}
	line := indent + "  " + label
	if selected {
		return s.selectedStyle.Render(line)
	}
	return s.leafStyle.Render(line)
}

func (s *sidebar) frame(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(s.height).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderForeground(lipgloss.Color("240")).
		Render(content)
}
