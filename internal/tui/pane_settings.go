package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/merchdeck/merchdeck/internal/config"
	"github.com/merchdeck/merchdeck/internal/workbench"
)

type settingsSavedMsg struct{ err error }

var (
	themeChoices    = []string{"dark", "light", "solarized"}
	languageChoices = []string{"en", "de", "fr", "nl"}
)

// settingsPane edits the persisted user preferences.
type settingsPane struct {
	store    *config.Store
	settings config.Settings
	cursor   int
	dirty    bool
	saveErr  error
	saved    bool
}

func newSettingsPane(store *config.Store) workbench.Pane {
	p := &settingsPane{store: store, settings: config.DefaultSettings()}
	if store != nil {
		if s, err := store.Load(); err == nil {
			p.settings = s
		}
	}
	return p
}

func (p *settingsPane) Init() tea.Cmd { return nil }

const settingsRowCount = 4 // theme, language, font size, sidebar pinned

func (p *settingsPane) Update(msg tea.Msg) (workbench.Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		p.saveErr = msg.err
		p.saved = msg.err == nil
		if p.saved {
			p.dirty = false
		}
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if p.cursor > 0 {
				p.cursor--
			}
		case "down", "j":
			if p.cursor < settingsRowCount-1 {
				p.cursor++
			}
		case "left", "h":
			p.adjust(-1)
		case "right", "l":
			p.adjust(1)
		case "s":
			if p.dirty && p.store != nil {
				settings := p.settings
				store := p.store
				return p, func() tea.Msg {
					return settingsSavedMsg{err: store.Save(settings)}
				}
			}
		}
	}
	return p, nil
}

func (p *settingsPane) adjust(dir int) {
	p.dirty = true
	p.saved = false
	switch p.cursor {
	case 0:
		p.settings.Theme = cycleChoice(themeChoices, p.settings.Theme, dir)
	case 1:
		p.settings.Language = cycleChoice(languageChoices, p.settings.Language, dir)
	case 2:
		p.settings.FontSize += dir
		if p.settings.FontSize < 10 {
			p.settings.FontSize = 10
		}
		if p.settings.FontSize > 24 {
			p.settings.FontSize = 24
		}
	case 3:
		if p.settings.Sidebar == nil {
			p.settings.Sidebar = &config.SidebarSettings{}
		}
		p.settings.Sidebar.Pinned = !p.settings.Sidebar.Pinned
	}
}

func cycleChoice(choices []string, current string, dir int) string {
	idx := 0
	for i, c := range choices {
		if c == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(choices)) % len(choices)
	return choices[idx]
}

func (p *settingsPane) View(width, height int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Render("Settings")
	selected := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("226"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	pinned := false
	if p.settings.Sidebar != nil {
		pinned = p.settings.Sidebar.Pinned
	}
	rows := []string{
		fmt.Sprintf("theme       < %s >", p.settings.Theme),
		fmt.Sprintf("language    < %s >", p.settings.Language),
		fmt.Sprintf("font size   < %d >", p.settings.FontSize),
		fmt.Sprintf("sidebar pin < %v >", pinned),
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	for i, row := range rows {
		if i == p.cursor {
			b.WriteString(selected.Render(row))
		} else {
			b.WriteString(row)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if p.saveErr != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("save failed: "+p.saveErr.Error()) + "\n")
	} else if p.saved {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("saved") + "\n")
	}
	b.WriteString(dim.Render("arrows change  s save"))
	return b.String()
}
