package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/merchdeck/merchdeck/internal/config"
	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/merchdeck/merchdeck/internal/nav"
	"github.com/merchdeck/merchdeck/pkg/events"
)

func TestLicenseFromConfig(t *testing.T) {
	lic := licenseFromConfig(config.LicenseConfig{
		Valid:    true,
		Level:    "standard",
		Features: []string{"bulk_media"},
	})
	assert.True(t, lic.Valid)
	assert.True(t, lic.HasFeature("bulk_media"))
	assert.False(t, lic.HasFeature("reporting"))
	assert.Nil(t, lic.ExpiryDate)
}

func TestLicenseExpiryInvalidates(t *testing.T) {
	lic := licenseFromConfig(config.LicenseConfig{
		Valid:  true,
		Expiry: "2020-01-01T00:00:00Z",
	})
	assert.False(t, lic.Valid, "past expiry overrides the valid flag")
	require.NotNil(t, lic.ExpiryDate)
}

func TestLocalIdentityDefaults(t *testing.T) {
	t.Setenv("MERCHDECK_USER", "")
	t.Setenv("MERCHDECK_ROLE", "")

	user, lic := localIdentity(config.Default())
	assert.Equal(t, "operator", user.ID)
	assert.Equal(t, auth.RoleManager, user.Role)
	assert.False(t, user.Has("admin:locker"), "locker access needs an admin role")
	assert.True(t, user.Has("edit:products"))
	assert.True(t, lic.HasFeature("bulk_media"))
}

func TestLocalIdentityAdminRole(t *testing.T) {
	t.Setenv("MERCHDECK_USER", "ada")
	t.Setenv("MERCHDECK_ROLE", "admin")

	user, _ := localIdentity(config.Default())
	assert.Equal(t, "ada", user.DisplayName)
	assert.True(t, user.Has("admin:locker"))
}

func TestOpsStateTracksTabs(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Shutdown()

	state := newOpsState(bus, nav.NewBinding(menu.DefaultTree().Flatten()))

	tabs := state.Tabs()
	require.Len(t, tabs, 1)
	assert.Equal(t, menu.HomeID, tabs[0].ID)
	assert.True(t, tabs[0].Active)

	bus.Publish(events.Event{Type: events.TabOpened, Data: map[string]interface{}{"id": "products"}})
	bus.Publish(events.Event{Type: events.NavigationChanged, Data: map[string]interface{}{"id": "products"}})

	require.Eventually(t, func() bool {
		tabs := state.Tabs()
		if len(tabs) != 2 {
			return false
		}
		return tabs[1].ID == "products" && tabs[1].Active && tabs[1].Path == "/products"
	}, 2*time.Second, 10*time.Millisecond)

	bus.Publish(events.Event{Type: events.TabClosed, Data: map[string]interface{}{"id": "products"}})
	require.Eventually(t, func() bool {
		return len(state.Tabs()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpsStateTracksPipeline(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Shutdown()

	state := newOpsState(bus, nav.NewBinding(menu.DefaultTree().Flatten()))

	bus.Publish(events.Event{Type: events.PipelineProgress, Data: map[string]interface{}{
		"current": 2, "total": 7, "batch": 1, "totalBatches": 3,
		"stage": "uploading", "recordKey": "ABC-001",
	}})
	require.Eventually(t, func() bool {
		p := state.Pipeline()
		return p.Running && p.Current == 2 && p.Total == 7 && p.Stage == "uploading"
	}, 2*time.Second, 10*time.Millisecond)

	bus.Publish(events.Event{Type: events.PipelineFinished, Data: map[string]interface{}{"successful": 6}})
	require.Eventually(t, func() bool {
		p := state.Pipeline()
		return !p.Running && p.Stage == "finished"
	}, 2*time.Second, 10*time.Millisecond)
}
