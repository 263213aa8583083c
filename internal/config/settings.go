package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// SettingsKey is the single namespaced key all user preferences live
// under. Legacy per-key files are consolidated into it on first run.
const SettingsKey = "merchdeck.settings"

// Settings is the persisted user preference object.
type Settings struct {
	Theme    string           `json:"theme"`
	Language string           `json:"language"`
	FontSize int              `json:"fontSize"`
	Sidebar  *SidebarSettings `json:"sidebar,omitempty"`
}

// SidebarSettings is the persisted sidebar intent.
type SidebarSettings struct {
	Pinned    bool `json:"pinned"`
	Collapsed bool `json:"collapsed"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{Theme: "dark", Language: "en", FontSize: 14}
}

// legacyKeys maps the old per-key files onto Settings fields.
var legacyKeys = []string{"theme", "language", "fontsize", "sidebar"}

// Store persists Settings as one JSON object, guarded by a file lock
// so concurrent instances cannot interleave writes.
type Store struct {
	dir  string
	lock *flock.Flock
}

// NewStore opens a settings store rooted at dir (created if needed).
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings dir: %w", err)
	}
	return &Store{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, SettingsKey+".lock")),
	}, nil
}

// DefaultDir returns the per-user settings directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".merchdeck"), nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, SettingsKey+".json")
}

// Load reads the settings object, running the legacy-key migration
// first. Missing file yields defaults.
func (s *Store) Load() (Settings, error) {
	if err := s.lock.Lock(); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to lock settings: %w", err)
	}
	defer s.lock.Unlock()

	if err := s.migrateLocked(); err != nil {
		return DefaultSettings(), err
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}

// Save writes the settings object atomically under the lock.
func (s *Store) Save(settings Settings) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock settings: %w", err)
	}
	defer s.lock.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

// migrateLocked consolidates legacy per-key entries into the single
// settings object. Idempotent: legacy files are removed once absorbed,
// and values already present in the consolidated object win.
func (s *Store) migrateLocked() error {
	var legacy map[string]json.RawMessage
	for _, key := range legacyKeys {
		path := filepath.Join(s.dir, key+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if legacy == nil {
			legacy = make(map[string]json.RawMessage)
		}
		legacy[key] = json.RawMessage(data)
	}
	if legacy == nil {
		return nil
	}

	settings := DefaultSettings()
	migrated := false
	if data, err := os.ReadFile(s.path()); err == nil {
		migrated = json.Unmarshal(data, &settings) == nil
	}

	if !migrated {
		if raw, ok := legacy["theme"]; ok {
			_ = json.Unmarshal(raw, &settings.Theme)
		}
		if raw, ok := legacy["language"]; ok {
			_ = json.Unmarshal(raw, &settings.Language)
		}
		if raw, ok := legacy["fontsize"]; ok {
			_ = json.Unmarshal(raw, &settings.FontSize)
		}
		if raw, ok := legacy["sidebar"]; ok {
			var sb SidebarSettings
			if json.Unmarshal(raw, &sb) == nil {
				settings.Sidebar = &sb
			}
		}
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(s.path(), data, 0644); err != nil {
			return err
		}
	}

	for key := range legacy {
		_ = os.Remove(filepath.Join(s.dir, key+".json"))
	}
	return nil
}
