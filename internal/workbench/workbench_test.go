package workbench

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPane struct {
	id     string
	ctx    context.Context
	serial int
}

func (p *stubPane) Init() tea.Cmd                       { return nil }
func (p *stubPane) Update(msg tea.Msg) (Pane, tea.Cmd)  { return p, nil }
func (p *stubPane) View(width, height int) string       { return p.id }

type harness struct {
	wb     *Workbench
	mounts map[string]int
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{mounts: make(map[string]int)}

	dests := menu.DefaultTree().Flatten()
	reg := NewRegistry()
	for _, d := range dests {
		id := d.ID
		reg.Register(id, func(ctx context.Context) Pane {
			h.mounts[id]++
			return &stubPane{id: id, ctx: ctx, serial: h.mounts[id]}
		})
	}

	wb, err := New(dests, reg, menu.KeyTranslator, opts...)
	require.NoError(t, err)
	h.wb = wb
	return h
}

func TestNewRequiresRegisteredComponents(t *testing.T) {
	dests := menu.DefaultTree().Flatten()
	reg := NewRegistry()
	// Register everything except orders.
	for _, d := range dests {
		if d.ID == "orders" {
			continue
		}
		reg.Register(d.ID, func(ctx context.Context) Pane { return &stubPane{} })
	}

	_, err := New(dests, reg, menu.KeyTranslator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders")
}

func TestOpenActivateClose(t *testing.T) {
	h := newHarness(t)
	wb := h.wb

	require.NoError(t, wb.OpenTab("orders", OpenOptions{}))
	require.NoError(t, wb.OpenTab("products", OpenOptions{}))
	assert.Equal(t, "products", wb.ActiveID())
	assert.Len(t, wb.Tabs(), 3)

	// Opening an already-active tab is idempotent.
	require.NoError(t, wb.OpenTab("products", OpenOptions{}))
	assert.Len(t, wb.Tabs(), 3)

	// Re-activating an open tab does not append.
	require.NoError(t, wb.Activate("orders"))
	assert.Equal(t, "orders", wb.ActiveID())
	assert.Len(t, wb.Tabs(), 3)

	// Closing the active tab activates the preceding one.
	wb.CloseTab("orders")
	assert.Equal(t, menu.HomeID, wb.ActiveID())
	assert.Len(t, wb.Tabs(), 2)
}

func TestHomeTabIsNotCloseable(t *testing.T) {
	h := newHarness(t)
	h.wb.CloseTab(menu.HomeID)
	assert.Len(t, h.wb.Tabs(), 1)
	assert.Equal(t, menu.HomeID, h.wb.ActiveID())

	h.wb.CloseActive()
	assert.Len(t, h.wb.Tabs(), 1)
}

func TestUnknownTab(t *testing.T) {
	h := newHarness(t)
	err := h.wb.OpenTab("not-a-destination", OpenOptions{})
	assert.ErrorIs(t, err, ErrUnknownTab)

	err = h.wb.Activate("orders") // not open yet
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestTabLimit(t *testing.T) {
	h := newHarness(t, WithMaxTabs(3))
	require.NoError(t, h.wb.OpenTab("orders", OpenOptions{}))
	require.NoError(t, h.wb.OpenTab("products", OpenOptions{}))

	err := h.wb.OpenTab("stocks", OpenOptions{})
	assert.ErrorIs(t, err, ErrTabLimitReached)

	// Already-open tabs can still be activated at the limit.
	require.NoError(t, h.wb.OpenTab("orders", OpenOptions{}))
}

func TestKeepMountedLifecycle(t *testing.T) {
	// Scenario: orders mounts once, stays cached while products is
	// active, is released on close, and remounts fresh on reopen.
	h := newHarness(t)
	wb := h.wb

	require.NoError(t, wb.OpenTab("orders", OpenOptions{}))
	first := wb.ActivePane().(*stubPane)
	assert.Equal(t, 1, h.mounts["orders"])

	require.NoError(t, wb.OpenTab("products", OpenOptions{}))
	_ = wb.ActivePane()
	assert.True(t, wb.IsMounted("orders"), "orders stays cached while inactive")

	// Re-activation does not remount.
	require.NoError(t, wb.Activate("orders"))
	again := wb.ActivePane().(*stubPane)
	assert.Same(t, first, again)
	assert.Equal(t, 1, h.mounts["orders"])

	// Closing releases the instance and cancels its load context.
	wb.CloseTab("orders")
	assert.False(t, wb.IsMounted("orders"))
	select {
	case <-first.ctx.Done():
	default:
		t.Fatal("pane context not cancelled on close")
	}

	// Re-opening mounts a fresh instance.
	require.NoError(t, wb.OpenTab("orders", OpenOptions{}))
	fresh := wb.ActivePane().(*stubPane)
	assert.Equal(t, 2, h.mounts["orders"])
	assert.NotSame(t, first, fresh)
	assert.Equal(t, 2, fresh.serial)
}

func TestCycle(t *testing.T) {
	h := newHarness(t)
	wb := h.wb
	require.NoError(t, wb.OpenTab("orders", OpenOptions{}))
	require.NoError(t, wb.OpenTab("products", OpenOptions{}))

	wb.CycleNext()
	assert.Equal(t, menu.HomeID, wb.ActiveID())
	wb.CyclePrev()
	assert.Equal(t, "products", wb.ActiveID())
	wb.CyclePrev()
	assert.Equal(t, "orders", wb.ActiveID())
}

func TestWorkbenchInvariantsUnderRandomOps(t *testing.T) {
	// For any op sequence: home stays present, the active id is in the
	// open set, ids are unique.
	h := newHarness(t)
	wb := h.wb
	ids := []string{"orders", "products", "stocks", "invoices", "customers", "cms-pages"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(3) {
		case 0:
			if err := wb.OpenTab(id, OpenOptions{}); err != nil {
				assert.True(t, errors.Is(err, ErrUnknownTab) || errors.Is(err, ErrTabLimitReached))
			}
		case 1:
			wb.CloseTab(id)
		case 2:
			_ = wb.Activate(id)
		}

		tabs := wb.Tabs()
		seen := make(map[string]bool, len(tabs))
		activeFound := false
		homeFound := false
		for _, tab := range tabs {
			assert.False(t, seen[tab.ID], "duplicate tab %s", tab.ID)
			seen[tab.ID] = true
			if tab.ID == wb.ActiveID() {
				activeFound = true
			}
			if tab.ID == menu.HomeID {
				homeFound = true
			}
		}
		assert.True(t, homeFound, "home tab missing")
		assert.True(t, activeFound, "active id not in open set")
	}
}

func TestActivateNotifiesForURLSync(t *testing.T) {
	h := newHarness(t)
	var notified []string
	h.wb.SetOnActivate(func(id string, skip bool) {
		if !skip {
			notified = append(notified, id)
		}
	})

	require.NoError(t, h.wb.OpenTab("orders", OpenOptions{}))
	require.NoError(t, h.wb.OpenTab("products", OpenOptions{SkipNavigation: true}))
	assert.Equal(t, []string{"orders"}, notified)
}
