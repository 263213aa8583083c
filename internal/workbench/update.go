package workbench

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// UpdateActive feeds a message to the active pane, mounting it first if
// needed. A panicking pane is swapped for an error placeholder so its
// siblings keep running.
func (w *Workbench) UpdateActive(msg tea.Msg) (cmd tea.Cmd) {
	id := w.active
	pane := w.paneFor(id)
	defer func() {
		if r := recover(); r != nil {
			w.replaceCrashed(id, r)
			cmd = nil
		}
	}()
	var next Pane
	next, cmd = pane.Update(msg)
	if m, ok := w.mounts[id]; ok {
		m.pane = next
	}
	return cmd
}

// Broadcast feeds a message to every mounted pane. Async results (load
// completions, pipeline progress) reach their pane even while another
// tab is active.
func (w *Workbench) Broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for id, m := range w.mounts {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.replaceCrashed(id, r)
				}
			}()
			next, cmd := m.pane.Update(msg)
			m.pane = next
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}()
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// ViewActive renders the active pane behind the same error boundary.
func (w *Workbench) ViewActive(width, height int) (out string) {
	id := w.active
	pane := w.paneFor(id)
	defer func() {
		if r := recover(); r != nil {
			w.replaceCrashed(id, r)
			out = w.paneFor(id).View(width, height)
		}
	}()
	return pane.View(width, height)
}

// InitActive runs the active pane's Init command.
func (w *Workbench) InitActive() (cmd tea.Cmd) {
	id := w.active
	pane := w.paneFor(id)
	defer func() {
		if r := recover(); r != nil {
			w.replaceCrashed(id, r)
			cmd = nil
		}
	}()
	return pane.Init()
}

// replaceCrashed is the error boundary: a panic inside one pane swaps
// that pane for a placeholder instead of taking down the program.
func (w *Workbench) replaceCrashed(id string, cause interface{}) {
	if m, ok := w.mounts[id]; ok {
		m.pane = newErrorPane(fmt.Sprintf("pane %q crashed: %v", id, cause))
	}
}
