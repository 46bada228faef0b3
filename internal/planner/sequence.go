package planner

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrEmptySequence is returned when a sequence would contain no images.
var ErrEmptySequence = errors.New("image sequence is empty")

// ImageRef identifies one input image by its position in the sequence.
type ImageRef struct {
	// Index is the 0-based position in the sequence
	Index int

	// Path is the image path as given on the command line
	Path string
}

// Stem returns the file name of the image without directory and extension.
func (r ImageRef) Stem() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Sequence is an ordered, immutable list of images.
type Sequence struct {
	refs []ImageRef
}

// NewSequence builds a sequence from paths in input order.
func NewSequence(paths []string) (Sequence, error) {
	if len(paths) == 0 {
		return Sequence{}, ErrEmptySequence
	}

	refs := make([]ImageRef, len(paths))
	for i, p := range paths {
		refs[i] = ImageRef{Index: i, Path: p}
	}
	return Sequence{refs: refs}, nil
}

// Len returns the number of images.
func (s Sequence) Len() int {
	return len(s.refs)
}

// At returns the image at index i. It panics if i is out of range.
func (s Sequence) At(i int) ImageRef {
	return s.refs[i]
}

// Refs returns a copy of the images in order.
func (s Sequence) Refs() []ImageRef {
	out := make([]ImageRef, len(s.refs))
	copy(out, s.refs)
	return out
}

// Paths returns the image paths in order.
func (s Sequence) Paths() []string {
	out := make([]string, len(s.refs))
	for i, r := range s.refs {
		out[i] = r.Path
	}
	return out
}

// DefaultFixedIndex returns the fixed reference used when none is given:
// the middle image, rounding down.
func DefaultFixedIndex(n int) int {
	return n / 2
}

// ResolveFixedIndex returns explicit if set, otherwise the default for n images.
func ResolveFixedIndex(n int, explicit *int) int {
	if explicit != nil {
		return *explicit
	}
	return DefaultFixedIndex(n)
}
