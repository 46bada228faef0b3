package fsops

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/regkit/internal/confirm"
)

// PrepareOutputDir makes sure path exists as a directory that may be written to.
//
// A missing directory is created and created is true. An existing directory
// is only reused after c confirms; files in it will be overwritten. A path
// that exists but is not a directory is a FilesystemError.
func PrepareOutputDir(fs FS, path string, c confirm.Confirmer) (created bool, err error) {
	exists, err := fs.Exists(path)
	if err != nil {
		return false, &FilesystemError{Op: "stat", Path: path, Err: err}
	}

	if !exists {
		if err := fs.MkdirAll(path, 0755); err != nil {
			return false, &FilesystemError{Op: "mkdir", Path: path, Err: err}
		}
		return true, nil
	}

	info, err := fs.Stat(path)
	if err != nil {
		return false, &FilesystemError{Op: "stat", Path: path, Err: err}
	}
	if !info.IsDir() {
		return false, &FilesystemError{Op: "mkdir", Path: path, Err: errors.New("exists and is not a directory")}
	}

	ok, err := c.Confirm(fmt.Sprintf("%s already exists, files will be overwritten. Continue?", path))
	if err != nil {
		return false, &OverwriteDeclinedError{Path: path, Err: err}
	}
	if !ok {
		return false, &OverwriteDeclinedError{Path: path}
	}
	return false, nil
}
