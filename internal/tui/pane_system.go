package tui

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/workbench"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// systemPane is the admin-only locker access view: runtime stats and a
// live feed of bus traffic.
type systemPane struct {
	version string
	opsPort int
	started time.Time

	mu  sync.Mutex
	log []string
}

func newSystemPane(version string, opsPort int, bus *events.EventBus) workbench.Pane {
	p := &systemPane{version: version, opsPort: opsPort, started: time.Now()}
	if bus != nil {
		watch := []events.EventType{
			events.NavigationChanged, events.TabOpened, events.TabClosed,
			events.PermissionDenied, events.PipelineFinished, events.IngestFileFound,
		}
		for _, et := range watch {
			bus.Subscribe(et, func(e events.Event) {
				p.mu.Lock()
				p.log = append(p.log, fmt.Sprintf("%s %s", e.Timestamp.Format("15:04:05"), e.Type))
				if len(p.log) > 12 {
					p.log = p.log[len(p.log)-12:]
				}
				p.mu.Unlock()
			})
		}
	}
	return p
}

func (p *systemPane) Init() tea.Cmd { return nil }

func (p *systemPane) Update(msg tea.Msg) (workbench.Pane, tea.Cmd) { return p, nil }

func (p *systemPane) View(width, height int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Render("Locker Access")
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "version:    %s\n", p.version)
	fmt.Fprintf(&b, "uptime:     %s\n", time.Since(p.started).Round(time.Second))
	fmt.Fprintf(&b, "goroutines: %d\n", runtime.NumGoroutine())
	if p.opsPort > 0 {
		fmt.Fprintf(&b, "ops server: http://localhost:%d\n", p.opsPort)
	}

	p.mu.Lock()
	entries := append([]string(nil), p.log...)
	p.mu.Unlock()
	if len(entries) > 0 {
		b.WriteString("\nevent feed:\n")
		for _, e := range entries {
			b.WriteString(dim.Render("  "+e) + "\n")
		}
	}
	return b.String()
}
