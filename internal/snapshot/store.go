package snapshot

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps at most one screenshot blob per tab identity under a single
// directory, named {id}.jpg. New screenshots overwrite, never append.
type Store struct {
	dir string
}

// New creates the screenshots directory under dataDir and sweeps away
// files left over from the old {id}_{timestamp}.jpg naming scheme.
func New(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "screenshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create screenshots directory: %w", err)
	}

	s := &Store{dir: dir}
	s.sweepLegacy()
	return s, nil
}

// Dir returns the directory holding the blobs.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the blob path for a tab identity, whether or not a blob
// exists there.
func (s *Store) Path(id int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.jpg", id))
}

// Save decodes base64Data and writes it as the tab's blob, replacing any
// previous one. Returns the blob path.
func (s *Store) Save(id int64, base64Data string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode screenshot: %w", err)
	}

	path := s.Path(id)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	return path, nil
}

// Delete removes the tab's blob. Deleting a missing blob is a no-op.
func (s *Store) Delete(id int64) {
	os.Remove(s.Path(id))
}

// Clear removes every blob in the directory.
func (s *Store) Clear() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		os.Remove(filepath.Join(s.dir, entry.Name()))
	}
}

// sweepLegacy removes screenshots written by older versions that encoded a
// timestamp in the filename, so only the {id}.jpg scheme remains.
func (s *Store) sweepLegacy() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.Contains(name, "_") && strings.HasSuffix(name, ".jpg") {
			log.Printf("[snapshot] removing legacy screenshot %s", name)
			os.Remove(filepath.Join(s.dir, name))
		}
	}
}
