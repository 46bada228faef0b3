// Package fsops is the filesystem seam of regkit.
//
// Engine code reads inputs and writes artifacts only through FS, so runs can
// be tested against MemFS. Writes of derived files (composed transforms,
// manifests, images) are atomic: a reader sees the old file or the new one,
// never a partial write.
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FS is the set of filesystem operations regkit needs.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Copy copies the regular file src to dst, replacing dst.
	Copy(src, dst string) error

	// AtomicWrite replaces path with data.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// Glob returns the sorted paths matching pattern.
	Glob(pattern string) ([]string, error)
}

// ErrNotRegular is returned when copying something other than a regular file.
var ErrNotRegular = errors.New("not a regular file")

// RealFS implements FS on the local disk.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Copy reads src and writes it atomically to dst with the same permissions.
func (fs *RealFS) Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", src, ErrNotRegular)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return fs.AtomicWrite(dst, data, info.Mode().Perm())
}

// AtomicWrite writes data to a temp file next to path and renames it into place.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".regkit-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}
	return nil
}

func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists reports whether path exists. Errors other than "not found" are returned.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (fs *RealFS) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

// HasGlobMeta reports whether path contains glob metacharacters.
func HasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
