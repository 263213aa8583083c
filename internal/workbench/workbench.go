package workbench

import (
	"context"
	"errors"
	"fmt"

	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// ErrUnknownTab is returned when an id has no destination or no
// registered pane component.
var ErrUnknownTab = errors.New("unknown tab")

// ErrTabLimitReached is returned by OpenTab once the bounded tab count
// is exhausted.
var ErrTabLimitReached = errors.New("tab limit reached")

// Tab is one entry of the open set.
type Tab struct {
	ID           string
	Label        string
	Closeable    bool
	ComponentKey string
}

// OpenOptions is the options form of OpenTab. The positional
// skipNavigation signature was retired; this form is authoritative.
type OpenOptions struct {
	// SkipNavigation suppresses the URL-sync notification; used when
	// the open request itself originated from a URL change.
	SkipNavigation bool
	// Title overrides the destination label for this tab.
	Title string
}

type mount struct {
	pane   Pane
	cancel context.CancelFunc
}

// Workbench owns the ordered open-tab set, the active tab and the
// keep-mounted pane cache. All mutation goes through its operations;
// callers observe state through read-only accessors.
type Workbench struct {
	dests     map[string]menu.Destination
	registry  *Registry
	translate menu.Translator

	tabs   []Tab
	active string
	mounts map[string]*mount

	maxTabs    int
	overflowAt int
	bus        *events.EventBus

	onActivate func(id string, skipNavigation bool)
}

// Option configures a Workbench.
type Option func(*Workbench)

// WithMaxTabs bounds the open set; OpenTab surfaces
// ErrTabLimitReached beyond it. Zero means unbounded.
func WithMaxTabs(n int) Option {
	return func(w *Workbench) { w.maxTabs = n }
}

// WithOverflowAt sets the tab count past which the tab bar collapses
// trailing tabs into an overflow indicator.
func WithOverflowAt(n int) Option {
	return func(w *Workbench) { w.overflowAt = n }
}

// WithBus publishes tab lifecycle events on the given bus.
func WithBus(bus *events.EventBus) Option {
	return func(w *Workbench) { w.bus = bus }
}

func (w *Workbench) publish(t events.EventType, id string) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(events.Event{
		Type:   t,
		Source: "workbench",
		Data:   map[string]interface{}{"id": id},
	})
}

// New validates the destination↔component wiring and opens the home
// tab. A destination without a registered component is a configuration
// error and fatal at startup.
func New(dests []menu.Destination, registry *Registry, tr menu.Translator, opts ...Option) (*Workbench, error) {
	w := &Workbench{
		dests:      make(map[string]menu.Destination, len(dests)),
		registry:   registry,
		translate:  tr,
		mounts:     make(map[string]*mount),
		overflowAt: 8,
	}
	for _, o := range opts {
		o(w)
	}

	for _, d := range dests {
		if !registry.Has(d.ID) {
			return nil, fmt.Errorf("destination %q has no registered component", d.ID)
		}
		w.dests[d.ID] = d
	}
	home, ok := w.dests[menu.HomeID]
	if !ok {
		return nil, fmt.Errorf("destination %q (home) is not declared", menu.HomeID)
	}

	w.tabs = []Tab{{
		ID:           home.ID,
		Label:        tr(home.LabelKey),
		Closeable:    false,
		ComponentKey: home.ID,
	}}
	w.active = home.ID
	return w, nil
}

// SetOnActivate installs the URL-sync notification hook.
func (w *Workbench) SetOnActivate(fn func(id string, skipNavigation bool)) {
	w.onActivate = fn
}

// OpenTab appends the tab if absent and activates it. Idempotent when
// the id is already active.
func (w *Workbench) OpenTab(id string, opts OpenOptions) error {
	dest, ok := w.dests[id]
	if !ok || !w.registry.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownTab, id)
	}
	if w.active == id {
		return nil
	}
	if !w.isOpen(id) {
		if w.maxTabs > 0 && len(w.tabs) >= w.maxTabs {
			return fmt.Errorf("%w: %d tabs open", ErrTabLimitReached, len(w.tabs))
		}
		label := w.translate(dest.LabelKey)
		if opts.Title != "" {
			label = opts.Title
		}
		w.tabs = append(w.tabs, Tab{
			ID:           id,
			Label:        label,
			Closeable:    true,
			ComponentKey: id,
		})
		w.publish(events.TabOpened, id)
	}
	w.active = id
	if w.onActivate != nil {
		w.onActivate(id, opts.SkipNavigation)
	}
	return nil
}

// Activate selects an already-open tab without appending.
func (w *Workbench) Activate(id string) error {
	if !w.isOpen(id) {
		return fmt.Errorf("%w: %s", ErrUnknownTab, id)
	}
	if w.active == id {
		return nil
	}
	w.active = id
	if w.onActivate != nil {
		w.onActivate(id, false)
	}
	return nil
}

// CloseTab removes the tab and releases its cached pane. Closing the
// home tab fails silently; closing the active tab activates the tab
// immediately preceding it, or home.
func (w *Workbench) CloseTab(id string) {
	if id == menu.HomeID {
		return
	}
	idx := -1
	for i, t := range w.tabs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	w.tabs = append(w.tabs[:idx], w.tabs[idx+1:]...)
	if m, ok := w.mounts[id]; ok {
		m.cancel()
		delete(w.mounts, id)
	}
	w.publish(events.TabClosed, id)

	if w.active == id {
		next := menu.HomeID
		if idx > 0 {
			next = w.tabs[idx-1].ID
		}
		w.active = next
		if w.onActivate != nil {
			w.onActivate(next, false)
		}
	}
}

// CloseActive closes the currently active tab.
func (w *Workbench) CloseActive() {
	w.CloseTab(w.active)
}

// CycleNext activates the tab after the active one, wrapping around.
func (w *Workbench) CycleNext() {
	w.cycle(1)
}

// CyclePrev activates the tab before the active one, wrapping around.
func (w *Workbench) CyclePrev() {
	w.cycle(-1)
}

func (w *Workbench) cycle(step int) {
	if len(w.tabs) < 2 {
		return
	}
	cur := 0
	for i, t := range w.tabs {
		if t.ID == w.active {
			cur = i
			break
		}
	}
	next := (cur + step + len(w.tabs)) % len(w.tabs)
	_ = w.Activate(w.tabs[next].ID)
}

// ActivePane resolves the active tab's pane, mounting it on first
// activation and retaining it until the tab closes. A missing
// registration yields a placeholder error pane, never a panic.
func (w *Workbench) ActivePane() Pane {
	return w.paneFor(w.active)
}

func (w *Workbench) paneFor(id string) Pane {
	if m, ok := w.mounts[id]; ok {
		return m.pane
	}
	factory, ok := w.registry.factory(id)
	if !ok {
		return newErrorPane(fmt.Sprintf("no component registered for %q", id))
	}
	ctx, cancel := context.WithCancel(context.Background())
	// Insert before calling the factory so a re-entrant resolution
	// during a pending load cannot mount twice.
	m := &mount{cancel: cancel}
	w.mounts[id] = m
	m.pane = factory(ctx)
	return m.pane
}

// Tabs returns a copy of the open set in order.
func (w *Workbench) Tabs() []Tab {
	out := make([]Tab, len(w.tabs))
	copy(out, w.tabs)
	return out
}

// ActiveID returns the active tab id.
func (w *Workbench) ActiveID() string {
	return w.active
}

// ActiveTab returns the active tab.
func (w *Workbench) ActiveTab() Tab {
	for _, t := range w.tabs {
		if t.ID == w.active {
			return t
		}
	}
	return w.tabs[0]
}

// IsOpen reports whether the id is in the open set.
func (w *Workbench) IsOpen(id string) bool {
	return w.isOpen(id)
}

func (w *Workbench) isOpen(id string) bool {
	for _, t := range w.tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}

// IsMounted reports whether the id currently holds a cached pane.
func (w *Workbench) IsMounted(id string) bool {
	_, ok := w.mounts[id]
	return ok
}

// OverflowAt returns the configured overflow threshold for the tab bar.
func (w *Workbench) OverflowAt() int {
	return w.overflowAt
}
