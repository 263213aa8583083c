package nav

import (
	"errors"
)

// ErrPermissionDenied is reported when navigation targets a node the
// current user may not access; the route resolves to home instead.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUnknownPath is reported when a path resolves to no destination.
var ErrUnknownPath = errors.New("unknown path")

// Hooks are the workbench-side effects the reconciler drives.
type Hooks struct {
	// Open ensures the tab is open and active without re-pushing the
	// URL. Returning an error redirects to the home tab.
	Open func(id string) error
	// Denied surfaces a notification when navigation is redirected.
	Denied func(path string, err error)
}

// Reconciler serialises URL↔tab reconciliation: one navigation at a
// time, bursts collapsing to the latest destination.
type Reconciler struct {
	binding *Binding
	history *History
	homeID  string
	allowed func(id string) bool
	hooks   Hooks

	busy   bool
	queued string
	hasQ   bool
}

func NewReconciler(binding *Binding, homeID string, allowed func(id string) bool, hooks Hooks) *Reconciler {
	home, _ := binding.PathOf(homeID)
	return &Reconciler{
		binding: binding,
		history: NewHistory(home),
		homeID:  homeID,
		allowed: allowed,
		hooks:   hooks,
	}
}

// CurrentPath returns the path currently reflected in the history.
func (r *Reconciler) CurrentPath() string {
	return r.history.Current()
}

// History exposes the underlying stack for footer rendering and tests.
func (r *Reconciler) History() *History {
	return r.history
}

// NavigateTo handles a URL-driven navigation event. While one event is
// being reconciled further events queue, keeping only the latest.
func (r *Reconciler) NavigateTo(path string) {
	if r.busy {
		r.queued = path
		r.hasQ = true
		return
	}
	r.busy = true
	current := path
	for {
		r.reconcile(current)
		if !r.hasQ {
			break
		}
		current = r.queued
		r.hasQ = false
	}
	r.busy = false
}

func (r *Reconciler) reconcile(path string) {
	id, ok := r.binding.Resolve(path)
	if !ok {
		r.redirectHome(path, ErrUnknownPath)
		return
	}
	if r.allowed != nil && !r.allowed(id) {
		r.redirectHome(path, ErrPermissionDenied)
		return
	}
	if err := r.hooks.Open(id); err != nil {
		r.redirectHome(path, err)
		return
	}
	// URL-driven reconciliation replaces rather than pushes.
	canonical, _ := r.binding.PathOf(id)
	r.history.Replace(canonical)
}

func (r *Reconciler) redirectHome(path string, cause error) {
	if r.hooks.Denied != nil {
		r.hooks.Denied(path, cause)
	}
	if err := r.hooks.Open(r.homeID); err == nil {
		home, _ := r.binding.PathOf(r.homeID)
		r.history.Replace(home)
	}
}

// TabActivated handles a tab activation coming from the UI. The URL is
// replaced when it already resolves to the activated tab, pushed
// otherwise.
func (r *Reconciler) TabActivated(id string) {
	path, ok := r.binding.PathOf(id)
	if !ok {
		return
	}
	if cur, resolved := r.binding.Resolve(r.history.Current()); resolved && cur == id {
		r.history.Replace(path)
		return
	}
	r.history.Push(path)
}
