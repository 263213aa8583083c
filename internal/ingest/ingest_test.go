package ingest

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchdeck/merchdeck/pkg/events"
)

func TestScanPicksUpExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.csv"), []byte("sku\nA-1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("img"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("skip"), 0644))

	w, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	files := w.Files()
	assert.Len(t, files, 2)

	kinds := map[string]Kind{}
	for _, f := range files {
		kinds[f.Name] = f.Kind
	}
	assert.Equal(t, KindManifest, kinds["manifest.csv"])
	assert.Equal(t, KindImage, kinds["a.jpg"])
}

func TestWatchAnnouncesNewFiles(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewEventBus()
	defer bus.Shutdown()

	var mu sync.Mutex
	var seen []string
	bus.Subscribe(events.IngestFileFound, func(e events.Event) {
		mu.Lock()
		seen = append(seen, e.Data["name"].(string))
		mu.Unlock()
	})

	w, err := New(dir, bus)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.png"), []byte("img"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, n := range seen {
			if n == "fresh.png" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemoveForgetsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.jpg")
	require.NoError(t, os.WriteFile(path, []byte("img"), 0644))

	w, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.Len(t, w.Files(), 1)
	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool {
		return len(w.Files()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
