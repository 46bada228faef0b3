package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var errNotDir = errors.New("not a directory")

// MemFS is an in-memory FS for tests. It is safe for concurrent use.
type MemFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	// FailWrite makes AtomicWrite fail for paths it returns true for.
	FailWrite func(path string) bool
}

// NewMemFS creates an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// WriteFile stores data at path and creates its parent directories.
func (m *MemFS) WriteFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(path, data)
}

// Files returns the sorted paths of all stored files.
func (m *MemFS) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *MemFS) putLocked(path string, data []byte) {
	path = filepath.Clean(path)
	buf := make([]byte, len(data))
	copy(buf, data)
	m.files[path] = buf
	m.mkdirLocked(filepath.Dir(path))
}

func (m *MemFS) mkdirLocked(path string) {
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		m.dirs[p] = true
		if parent := filepath.Dir(p); parent == p {
			return
		}
	}
}

// Stat returns synthetic file info.
func (m *MemFS) Stat(path string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if data, ok := m.files[path]; ok {
		return memFileInfo{name: filepath.Base(path), size: int64(len(data))}, nil
	}
	if m.dirs[path] {
		return memFileInfo{name: filepath.Base(path), dir: true}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
}

// MkdirAll records path and its parents as directories. Like the real
// filesystem it fails when path or any parent is a file.
func (m *MemFS) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if file, ok := m.fileOnPathLocked(path); ok {
		return &os.PathError{Op: "mkdir", Path: file, Err: errNotDir}
	}
	m.mkdirLocked(path)
	return nil
}

// fileOnPathLocked returns the first of path and its parents stored as a file.
func (m *MemFS) fileOnPathLocked(path string) (string, bool) {
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		if _, ok := m.files[p]; ok {
			return p, true
		}
		if parent := filepath.Dir(p); parent == p {
			return "", false
		}
	}
}

// Copy copies a single file.
func (m *MemFS) Copy(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(src)]
	if !ok {
		return &os.PathError{Op: "copy", Path: src, Err: os.ErrNotExist}
	}
	if file, ok := m.fileOnPathLocked(filepath.Dir(dst)); ok {
		return &os.PathError{Op: "copy", Path: file, Err: errNotDir}
	}
	m.putLocked(dst, data)
	return nil
}

// AtomicWrite stores data at path.
func (m *MemFS) AtomicWrite(path string, data []byte, _ os.FileMode) error {
	if m.FailWrite != nil && m.FailWrite(path) {
		return &os.PathError{Op: "write", Path: path, Err: errors.New("write failed")}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if file, ok := m.fileOnPathLocked(filepath.Dir(path)); ok {
		return &os.PathError{Op: "write", Path: file, Err: errNotDir}
	}
	m.putLocked(path, data)
	return nil
}

// ReadFile returns a copy of the stored data.
func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists checks for a file or directory at path.
func (m *MemFS) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

// Glob matches pattern against stored files.
func (m *MemFS) Glob(pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.files {
		if ok, _ := filepath.Match(pattern, p); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi memFileInfo) Name() string { return fi.name }
func (fi memFileInfo) Size() int64  { return fi.size }
func (fi memFileInfo) Mode() os.FileMode {
	if fi.dir {
		return os.ModeDir | 0755
	}
	return 0644
}
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return fi.dir }
func (fi memFileInfo) Sys() any           { return nil }
