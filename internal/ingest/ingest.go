// Package ingest watches a drop folder for manifests and images so a
// bulk upload can be staged without leaving the terminal.
package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/merchdeck/merchdeck/internal/logging"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// Kind classifies a dropped file.
type Kind string

const (
	KindManifest Kind = "manifest"
	KindImage    Kind = "image"
)

// File is one usable file found in the drop folder.
type File struct {
	Path string
	Name string
	Kind Kind
}

// Watcher scans a drop folder and then streams new arrivals over the
// event bus.
type Watcher struct {
	dir     string
	bus     *events.EventBus
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	files map[string]File

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a watcher for dir. The directory is created when missing.
func New(dir string, bus *events.EventBus) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		dir:     dir,
		bus:     bus,
		watcher: fsw,
		files:   make(map[string]File),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start scans the folder once and begins watching for changes.
func (w *Watcher) Start() error {
	if err := w.scan(); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.watch()
	return nil
}

// Stop ends the watch loop and releases the inotify handle.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// Files returns a snapshot of known drop-folder files.
func (w *Watcher) Files() []File {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]File, 0, len(w.files))
	for _, f := range w.files {
		out = append(out, f)
	}
	return out
}

func (w *Watcher) scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.record(filepath.Join(w.dir, entry.Name()), false)
	}
	return nil
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	log := logging.WithComponent("ingest")
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				w.record(event.Name, true)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.forget(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) record(path string, announce bool) {
	kind, ok := classify(path)
	if !ok {
		return
	}
	f := File{Path: path, Name: filepath.Base(path), Kind: kind}

	w.mu.Lock()
	_, known := w.files[path]
	w.files[path] = f
	w.mu.Unlock()

	if announce && !known && w.bus != nil {
		w.bus.Publish(events.Event{
			Type:   events.IngestFileFound,
			Source: "ingest",
			Data: map[string]interface{}{
				"path": f.Path,
				"name": f.Name,
				"kind": string(f.Kind),
			},
		})
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.files, path)
	w.mu.Unlock()
}

func classify(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return KindManifest, true
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return KindImage, true
	default:
		return "", false
	}
}
