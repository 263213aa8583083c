package workbench

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Pane is a mounted tab component. Panes keep their state for as long
// as their tab stays open; re-activation never remounts.
type Pane interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Pane, tea.Cmd)
	View(width, height int) string
}

// PaneFactory builds a pane. The context is cancelled when the tab is
// closed, releasing any pending load the pane started.
type PaneFactory func(ctx context.Context) Pane

// Registry maps tab ids to pane factories. It replaces runtime
// lazy-import strings with a typed table.
type Registry struct {
	factories map[string]PaneFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]PaneFactory)}
}

// Register binds an id to its factory, overwriting any previous entry.
func (r *Registry) Register(id string, f PaneFactory) {
	r.factories[id] = f
}

// Has reports whether the id has a factory.
func (r *Registry) Has(id string) bool {
	_, ok := r.factories[id]
	return ok
}

func (r *Registry) factory(id string) (PaneFactory, bool) {
	f, ok := r.factories[id]
	return f, ok
}

// errorPane is the placeholder shown when resolution fails. It also
// backs the error boundary: a crashing pane is swapped for one of
// these instead of unmounting its siblings.
type errorPane struct {
	message string
}

func newErrorPane(message string) Pane {
	return &errorPane{message: message}
}

func (p *errorPane) Init() tea.Cmd { return nil }

func (p *errorPane) Update(msg tea.Msg) (Pane, tea.Cmd) { return p, nil }

func (p *errorPane) View(width, height int) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)
	return style.Render(fmt.Sprintf("⚠ pane unavailable\n\n%s", p.message))
}

// NewErrorPane exposes the placeholder for the TUI's error boundary.
func NewErrorPane(message string) Pane {
	return newErrorPane(message)
}
