// Package engine drives registration runs and the imaging utilities.
//
// The engine package sits between the CLI commands and the lower-level
// packages. It expands and plans the image sequence, prepares the output
// directory, walks the left and right chains through the registrar,
// chains each produced transform onto the previous one and records the
// outcome in a manifest.
//
// Key components:
//   - Engine: holds the injected collaborators
//   - Run: the batch registration flow
//   - ExecuteChain: strictly ordered execution of one chain
//   - Compare and Grayscale: the diff and gray utilities
package engine

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/danieljhkim/regkit/internal/clock"
	"github.com/danieljhkim/regkit/internal/confirm"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/hash"
	"github.com/danieljhkim/regkit/internal/manifest"
	"github.com/danieljhkim/regkit/internal/registrar"
)

// Engine orchestrates all regkit operations.
// It is the main API surface called by the CLI.
type Engine struct {
	registrar registrar.Registrar
	fs        fsops.FS
	hasher    hash.Hasher
	clock     clock.Clock
	confirmer confirm.Confirmer
	manifests manifest.Store
	tracer    trace.Tracer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTracer sets the tracer used for run, chain and job spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates a new Engine with the given dependencies.
func New(
	reg registrar.Registrar,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	confirmer confirm.Confirmer,
	opts ...Option,
) *Engine {
	e := &Engine{
		registrar: reg,
		fs:        fs,
		hasher:    hasher,
		clock:     clk,
		confirmer: confirmer,
		manifests: manifest.NewFileStore(fs),
		tracer:    noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
