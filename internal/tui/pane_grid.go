package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/connector"
	"github.com/merchdeck/merchdeck/internal/workbench"
)

const gridPageSize = 50

type recordsLoadedMsg struct {
	resource string
	page     *connector.Page
	err      error
}

// gridPane is a read-only listing of one upstream resource. Each grid
// owns its own connector and loads lazily on mount.
type gridPane struct {
	ctx      context.Context
	resource string
	title    string
	source   connector.RecordSource

	table  table.Model
	offset int
	total  int
	loaded bool
	err    error
}

func newGridPane(ctx context.Context, resource, title string, source connector.RecordSource) workbench.Pane {
	columns := []table.Column{
		{Title: "ID", Width: 14},
		{Title: "Label", Width: 40},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("226"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("226"))
	t.SetStyles(styles)

	return &gridPane{
		ctx:      ctx,
		resource: resource,
		title:    title,
		source:   source,
		table:    t,
	}
}

func (p *gridPane) Init() tea.Cmd {
	return p.fetch(0)
}

func (p *gridPane) fetch(offset int) tea.Cmd {
	return func() tea.Msg {
		page, err := p.source.Fetch(p.ctx, p.resource, offset, gridPageSize)
		return recordsLoadedMsg{resource: p.resource, page: page, err: err}
	}
}

func (p *gridPane) Update(msg tea.Msg) (workbench.Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsLoadedMsg:
		if msg.resource != p.resource {
			return p, nil
		}
		p.loaded = true
		p.err = msg.err
		if msg.err == nil && msg.page != nil {
			p.total = msg.page.Total
			p.offset = msg.page.Offset
			rows := make([]table.Row, 0, len(msg.page.Records))
			for _, r := range msg.page.Records {
				rows = append(rows, table.Row{r.ID, r.Label})
			}
			p.table.SetRows(rows)
		}
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			p.loaded = false
			return p, p.fetch(p.offset)
		case "right", "]":
			if p.offset+gridPageSize < p.total {
				return p, p.fetch(p.offset + gridPageSize)
			}
			return p, nil
		case "left", "[":
			if p.offset > 0 {
				next := p.offset - gridPageSize
				if next < 0 {
					next = 0
				}
				return p, p.fetch(next)
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

func (p *gridPane) View(width, height int) string {
	header := lipgloss.NewStyle().Bold(true).Render(p.title)

	if p.err != nil {
		body := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).
			Render(fmt.Sprintf("failed to load %s: %v\n\npress r to retry", p.resource, p.err))
		return lipgloss.JoinVertical(lipgloss.Left, header, "", body)
	}
	if !p.loaded {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", "loading...")
	}

	p.table.SetWidth(width)
	p.table.SetHeight(height - 4)

	footer := fmt.Sprintf("%d-%d of %d  [/] page  r reload",
		p.offset+1, p.offset+len(p.table.Rows()), p.total)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		p.table.View(),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(footer),
	)
}
