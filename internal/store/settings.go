package store

import (
	"path/filepath"
	"sync"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// SettingsStore holds the persisted Settings document. Last write wins
// globally; the whole document is rewritten on every change.
type SettingsStore struct {
	mu       sync.RWMutex
	settings models.Settings
	path     string
}

// NewSettingsStore loads settings.json from dataDir, falling back to
// defaults when the file is missing or incompatible.
func NewSettingsStore(dataDir string) *SettingsStore {
	s := &SettingsStore{
		settings: models.DefaultSettings(),
		path:     filepath.Join(dataDir, "settings.json"),
	}
	// Decode into a scratch value so a file that fails decoding midway
	// cannot leave a mix of file values and defaults behind.
	var loaded models.Settings
	if loadJSON(s.path, &loaded) {
		s.settings = loaded
	}
	return s
}

// Get returns the current settings.
func (s *SettingsStore) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Replace swaps in new settings and persists them.
func (s *SettingsStore) Replace(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return saveJSON(s.path, &s.settings)
}
