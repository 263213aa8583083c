package tui

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/merchdeck/merchdeck/internal/workbench"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// dashboardPane is the home tab: a greeting, license state, and the
// tail of recent system events.
type dashboardPane struct {
	authSvc *auth.Service

	mu     sync.Mutex
	recent []string
}

func newDashboardPane(authSvc *auth.Service, bus *events.EventBus) workbench.Pane {
	p := &dashboardPane{authSvc: authSvc}
	if bus != nil {
		bus.Subscribe(events.SystemMessage, func(e events.Event) {
			text, _ := e.Data["message"].(string)
			if text == "" {
				return
			}
			p.mu.Lock()
			p.recent = append(p.recent, text)
			if len(p.recent) > 8 {
				p.recent = p.recent[len(p.recent)-8:]
			}
			p.mu.Unlock()
		})
	}
	return p
}

func (p *dashboardPane) Init() tea.Cmd { return nil }

func (p *dashboardPane) Update(msg tea.Msg) (workbench.Pane, tea.Cmd) { return p, nil }

func (p *dashboardPane) View(width, height int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Render("Dashboard")

	who := "not signed in"
	if u := p.authSvc.User(); u != nil {
		who = fmt.Sprintf("%s (%s)", u.DisplayName, u.Role)
	}
	lic := p.authSvc.License()
	licLine := "license: none"
	if lic.Valid {
		licLine = fmt.Sprintf("license: %s, features: %d", lic.Level, len(lic.Features))
	}

	p.mu.Lock()
	lines := append([]string(nil), p.recent...)
	p.mu.Unlock()

	body := fmt.Sprintf("%s\n%s\n", who, licLine)
	if len(lines) > 0 {
		body += "\nrecent activity:\n"
		for _, l := range lines {
			body += "  " + l + "\n"
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, "", body)
}
