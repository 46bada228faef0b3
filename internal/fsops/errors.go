package fsops

import (
	"fmt"
)

// FilesystemError records a failed filesystem operation and the path it touched.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// OverwriteDeclinedError is returned when an existing output directory may not be reused.
// Err is set when no answer was obtained (retry budget spent, no input).
type OverwriteDeclinedError struct {
	Path string
	Err  error
}

func (e *OverwriteDeclinedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("overwrite of %s not confirmed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("overwrite of %s declined", e.Path)
}

func (e *OverwriteDeclinedError) Unwrap() error {
	return e.Err
}
