package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pipeline.BatchSize)
	assert.Equal(t, 2000, cfg.Pipeline.DelayBetweenBatches)
	assert.True(t, cfg.Pipeline.ProcessImages)
	assert.Equal(t, 7878, cfg.OpsPort)
}

func TestLoadParsesToml(t *testing.T) {
	dir := t.TempDir()
	content := `
ops_port = 9000
drop_dir = "/srv/drop"

[upstreams]
master_data = "https://mdm.example.com"
ecommerce = "https://shop.example.com"
erp = "https://erp.example.com"

[pipeline]
batch_size = 5
delay_between_batches_ms = 100
image_quality = 0.7
target_size_kb = 300
process_images = true
upload_timeout_ms = 5000

[license]
valid = true
level = "pro"
features = ["bulk_media", "price_sync"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "merchdeck.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.OpsPort)
	assert.Equal(t, "https://mdm.example.com", cfg.Upstreams.MasterData)
	assert.Equal(t, 5, cfg.Pipeline.BatchSize)
	assert.InDelta(t, 0.7, cfg.Pipeline.ImageQuality, 1e-9)
	assert.Equal(t, []string{"bulk_media", "price_sync"}, cfg.License.Features)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "merchdeck.toml"),
		[]byte("[pipeline]\nbatch_size = 0\nimage_quality = 0.8\n"), 0644))
	_, err := Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "merchdeck.toml"),
		[]byte("[pipeline]\nbatch_size = 3\nimage_quality = 1.5\n"), 0644))
	_, err = Load(dir)
	assert.Error(t, err)
}

func TestSettingsSaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)

	settings.Theme = "light"
	settings.Sidebar = &SidebarSettings{Pinned: true, Collapsed: true}
	require.NoError(t, store.Save(settings))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "light", reloaded.Theme)
	require.NotNil(t, reloaded.Sidebar)
	assert.True(t, reloaded.Sidebar.Collapsed)
}

func TestLegacyMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.json"), []byte(`"solarized"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fontsize.json"), []byte(`16`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sidebar.json"), []byte(`{"pinned":true,"collapsed":false}`), 0644))

	store, err := NewStore(dir)
	require.NoError(t, err)

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "solarized", settings.Theme)
	assert.Equal(t, 16, settings.FontSize)
	require.NotNil(t, settings.Sidebar)
	assert.True(t, settings.Sidebar.Pinned)

	// Legacy files are absorbed and removed.
	_, err = os.Stat(filepath.Join(dir, "theme.json"))
	assert.True(t, os.IsNotExist(err))

	// Migration is idempotent: a second load (with a new legacy file
	// reappearing) must not clobber the consolidated object.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.json"), []byte(`"stale"`), 0644))
	settings, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "solarized", settings.Theme)
}
