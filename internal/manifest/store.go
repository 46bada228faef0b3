package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/regkit/internal/fsops"
)

// FileName is the manifest file name inside a run's output directory.
const FileName = "manifest.json"

// Store persists run manifests.
type Store interface {
	// Load reads the manifest of the run in dir.
	// Returns os.ErrNotExist if the run has no manifest.
	Load(dir string) (*Manifest, error)

	// Save writes the manifest into dir atomically.
	Save(dir string, m *Manifest) error
}

// FileStore implements Store using JSON files.
type FileStore struct {
	fs fsops.FS
}

// NewFileStore creates a new FileStore.
func NewFileStore(fs fsops.FS) *FileStore {
	return &FileStore{fs: fs}
}

// Path returns the manifest path for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the manifest of the run in dir.
func (s *FileStore) Load(dir string) (*Manifest, error) {
	data, err := s.fs.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if m.Version > SchemaVersion {
		return nil, fmt.Errorf("manifest version %d is newer than supported version %d", m.Version, SchemaVersion)
	}

	return &m, nil
}

// Save writes the manifest into dir atomically.
func (s *FileStore) Save(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := s.fs.AtomicWrite(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
