// Package registrar defines the boundary to the external registration engine.
//
// The engine package only sees the Registrar interface. Elastix runs the
// elastix command-line tool; Func adapts a plain function, which is what
// tests use.
package registrar

import (
	"context"
)

// Request describes one pairwise registration.
type Request struct {
	// Fixed is the path of the anchor image
	Fixed string

	// Moving is the path of the image to align to Fixed
	Moving string

	// ParameterFile is the registration parameter file passed to the tool
	ParameterFile string

	// OutputDir is an existing directory the tool writes its artifacts to
	OutputDir string
}

// Transform is what a registration produced.
type Transform struct {
	// ParameterFile is the transform parameter file mapping Fixed to Moving
	ParameterFile string

	// ResultImage is the resampled moving image, empty if the tool wrote none
	ResultImage string
}

// Registrar computes the transform that aligns a moving image to a fixed image.
type Registrar interface {
	Register(ctx context.Context, req Request) (Transform, error)
}

// Func adapts a function to the Registrar interface.
type Func func(ctx context.Context, req Request) (Transform, error)

// Register calls f.
func (f Func) Register(ctx context.Context, req Request) (Transform, error) {
	return f(ctx, req)
}
