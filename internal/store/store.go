package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// Store owns the authoritative mapping of tab identity to TabRecord.
// A single read-write lock serializes all mutations and flushes; readers
// never observe a partially updated record.
type Store struct {
	mu   sync.RWMutex
	tabs map[int64]*models.TabRecord
	path string
}

// New creates a Store backed by tabs.json under dataDir and loads any
// previously persisted mapping. An unreadable or incompatible file on disk
// is treated as absent.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		tabs: make(map[int64]*models.TabRecord),
		path: filepath.Join(dataDir, "tabs.json"),
	}
	s.Load()

	return s, nil
}

// Get returns a copy of the record for id.
func (s *Store) Get(id int64) (models.TabRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tab, ok := s.tabs[id]
	if !ok {
		return models.TabRecord{}, false
	}
	return *tab, true
}

// Upsert applies mutate to the record for id under exclusive access,
// creating a default record first if none exists.
func (s *Store) Upsert(id int64, mutate func(*models.TabRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, ok := s.tabs[id]
	if !ok {
		tab = &models.TabRecord{ID: id}
		s.tabs[id] = tab
	}
	mutate(tab)
}

// Remove deletes the record for id. Removing an unknown id is a no-op.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, id)
}

// Update runs fn with exclusive access to the whole mapping. Retention and
// drift correction use it so a scan-then-mutate pass is one critical
// section that concurrent events cannot straddle.
func (s *Store) Update(fn func(tabs map[int64]*models.TabRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tabs)
}

// All returns a copy of every record.
func (s *Store) All() []models.TabRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tabs := make([]models.TabRecord, 0, len(s.tabs))
	for _, tab := range s.tabs {
		tabs = append(tabs, *tab)
	}
	return tabs
}

// Stats returns total, open, and closed record counts.
func (s *Store) Stats() (total, open, closed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total = len(s.tabs)
	for _, tab := range s.tabs {
		if !tab.Closed() {
			open++
		}
	}
	closed = total - open
	return total, open, closed
}

// Persist writes the whole mapping to disk. The write happens under the
// same lock as mutations so concurrent flushes cannot lose updates.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveJSON(s.path, s.tabs)
}

// Load replaces the in-memory mapping with whatever is on disk, if anything.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs := make(map[int64]*models.TabRecord)
	if loadJSON(s.path, &tabs) {
		s.tabs = tabs
	}
}
