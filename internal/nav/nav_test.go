package nav

import (
	"testing"

	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBinding(t *testing.T) *Binding {
	t.Helper()
	return NewBinding(menu.DefaultTree().Flatten())
}

func TestResolve(t *testing.T) {
	b := testBinding(t)

	cases := []struct {
		path string
		id   string
		ok   bool
	}{
		{"/", "dashboard", true},
		{"/products", "products", true},
		{"/products/", "products", true},
		{"/products/42", "products", true},
		{"/cms/pages", "cms-pages", true},
		{"/cms/pages/about-us", "cms-pages", true},
		{"/locker/access", "locker-access", true},
		{"/nope", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := b.Resolve(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.id, id, tc.path)
	}
}

func TestRoundTrip(t *testing.T) {
	b := testBinding(t)
	for _, d := range menu.DefaultTree().Flatten() {
		path, ok := b.PathOf(d.ID)
		require.True(t, ok)
		id, ok := b.Resolve(path)
		require.True(t, ok)
		assert.Equal(t, d.ID, id)
	}
}

func TestHistoryPushReplace(t *testing.T) {
	h := NewHistory("/")
	h.Push("/orders")
	h.Push("/products")
	assert.Equal(t, "/products", h.Current())
	assert.Equal(t, 3, h.Len())

	h.Replace("/products/42")
	assert.Equal(t, "/products/42", h.Current())
	assert.Equal(t, 3, h.Len())

	back, ok := h.Back()
	require.True(t, ok)
	assert.Equal(t, "/orders", back)

	// Pushing after going back drops the forward entries.
	h.Push("/stocks")
	_, ok = h.Forward()
	assert.False(t, ok)

	// Pushing the current path is a no-op.
	h.Push("/stocks")
	assert.Equal(t, 3, h.Len())
}

type recHarness struct {
	opened []string
	denied []string
	refuse map[string]bool
}

func (h *recHarness) hooks() Hooks {
	return Hooks{
		Open: func(id string) error {
			h.opened = append(h.opened, id)
			return nil
		},
		Denied: func(path string, err error) {
			h.denied = append(h.denied, path)
		},
	}
}

func (h *recHarness) allowed(id string) bool {
	return !h.refuse[id]
}

func TestReconcilerKnownPath(t *testing.T) {
	b := testBinding(t)
	h := &recHarness{}
	r := NewReconciler(b, menu.HomeID, h.allowed, h.hooks())

	r.NavigateTo("/orders/")
	assert.Equal(t, []string{"orders"}, h.opened)
	assert.Empty(t, h.denied)
	assert.Equal(t, "/orders", r.CurrentPath())
	// URL-driven reconciliation replaces; the stack does not grow.
	assert.Equal(t, 1, r.History().Len())
}

func TestReconcilerUnknownPathRoutesHome(t *testing.T) {
	b := testBinding(t)
	h := &recHarness{}
	r := NewReconciler(b, menu.HomeID, h.allowed, h.hooks())

	r.NavigateTo("/definitely-not-here")
	assert.Equal(t, []string{"dashboard"}, h.opened)
	assert.Equal(t, []string{"/definitely-not-here"}, h.denied)
	assert.Equal(t, "/", r.CurrentPath())
}

func TestReconcilerPermissionDenied(t *testing.T) {
	b := testBinding(t)
	h := &recHarness{refuse: map[string]bool{"locker-access": true}}
	r := NewReconciler(b, menu.HomeID, h.allowed, h.hooks())

	r.NavigateTo("/locker/access")
	assert.Equal(t, []string{"dashboard"}, h.opened)
	assert.Equal(t, []string{"/locker/access"}, h.denied)
	assert.Equal(t, "/", r.CurrentPath())
}

func TestReconcilerCollapsesBursts(t *testing.T) {
	b := testBinding(t)
	h := &recHarness{}
	var r *Reconciler
	r = NewReconciler(b, menu.HomeID, h.allowed, Hooks{
		Open: func(id string) error {
			h.opened = append(h.opened, id)
			if id == "orders" {
				// A burst arriving mid-reconciliation: only the latest
				// destination survives.
				r.NavigateTo("/products")
				r.NavigateTo("/stocks")
			}
			return nil
		},
	})

	r.NavigateTo("/orders")
	assert.Equal(t, []string{"orders", "stocks"}, h.opened)
	assert.Equal(t, "/stocks", r.CurrentPath())
}

func TestTabActivatedPushVsReplace(t *testing.T) {
	b := testBinding(t)
	h := &recHarness{}
	r := NewReconciler(b, menu.HomeID, h.allowed, h.hooks())

	// Current URL is "/" (dashboard); activating orders pushes.
	r.TabActivated("orders")
	assert.Equal(t, "/orders", r.CurrentPath())
	assert.Equal(t, 2, r.History().Len())

	// Current URL already resolves to orders; re-activation replaces.
	r.History().Replace("/orders/42")
	r.TabActivated("orders")
	assert.Equal(t, "/orders", r.CurrentPath())
	assert.Equal(t, 2, r.History().Len())
}
