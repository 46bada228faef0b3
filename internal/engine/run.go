package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/regkit/internal/ctxlog"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/manifest"
	"github.com/danieljhkim/regkit/internal/planner"
	"github.com/danieljhkim/regkit/internal/tracing"
)

// Run registers an image sequence around its fixed reference.
//
// Planning errors are returned before anything is written. Once the chains
// have run, the result is always returned; if a chain stopped early the
// error wraps ErrPartialRun and every chain error.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if req.OutputDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", ErrValidation)
	}
	if req.ParameterFile == "" {
		return nil, fmt.Errorf("%w: parameter file is required", ErrValidation)
	}

	images, err := e.ExpandImages(req.Images)
	if err != nil {
		return nil, err
	}
	seq, err := planner.NewSequence(images)
	if err != nil {
		return nil, err
	}
	plan, err := planner.BuildPlan(seq, planner.ResolveFixedIndex(seq.Len(), req.FixedIndex))
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("plan built",
		"images", seq.Len(),
		"fixed", plan.Fixed.Path,
		"left", plan.Left.Len(),
		"right", plan.Right.Len())

	result := &RunResult{
		Plan:      plan,
		OutputDir: req.OutputDir,
		DryRun:    req.DryRun,
	}
	if req.DryRun {
		return result, nil
	}

	if err := e.checkInputs(req.ParameterFile, seq.Paths()); err != nil {
		return nil, err
	}

	created, err := fsops.PrepareOutputDir(e.fs, req.OutputDir, e.confirmer)
	if err != nil {
		return nil, err
	}
	result.Created = created

	paramCopy := filepath.Join(req.OutputDir, filepath.Base(req.ParameterFile))
	if filepath.Clean(paramCopy) != filepath.Clean(req.ParameterFile) {
		if err := e.fs.Copy(req.ParameterFile, paramCopy); err != nil {
			return nil, &fsops.FilesystemError{Op: "copy", Path: req.ParameterFile, Err: err}
		}
	}
	result.ParameterCopy = paramCopy

	m := manifest.New(req.OutputDir, req.ParameterFile, e.clock.Now())
	m.ParameterCopy = paramCopy
	m.Images = seq.Paths()
	m.Fixed = imageEntry(plan.Fixed)
	m.Parallel = req.Parallel
	result.RunID = m.RunID

	ctx, span := e.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
		attribute.String(tracing.AttrRunID, m.RunID),
		attribute.String(tracing.AttrOutputDir, req.OutputDir),
		attribute.Int(tracing.AttrImageCount, seq.Len()),
		attribute.Int(tracing.AttrFixedIndex, plan.Fixed.Index),
		attribute.Bool(tracing.AttrParallel, req.Parallel),
	))
	defer span.End()
	ctx = ctxlog.WithLogger(ctx, logger.With("run", m.RunID))

	opts := ChainOptions{ParameterFile: paramCopy, OutputDir: req.OutputDir}
	result.Chains = e.executeChains(ctx, plan, opts, req.Parallel)

	m.FinishedAt = e.clock.Now()
	m.Chains = manifestChains(plan, result.Chains)

	var errs []error
	for _, c := range result.Chains {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}

	if err := e.manifests.Save(req.OutputDir, m); err != nil {
		logger.Error("manifest not written", "error", err)
		span.RecordError(err)
		if len(errs) == 0 {
			return result, err
		}
		errs = append(errs, err)
	} else {
		result.ManifestPath = manifest.Path(req.OutputDir)
	}

	if len(errs) > 0 {
		span.SetStatus(codes.Error, "partial run")
		return result, fmt.Errorf("%w: %w", ErrPartialRun, errors.Join(errs...))
	}
	return result, nil
}

// executeChains runs the left chain and the right chain. In parallel mode
// each chain gets its own goroutine; chain goroutines never return an error
// so one chain's failure cannot cancel the other.
func (e *Engine) executeChains(ctx context.Context, plan *planner.Plan, opts ChainOptions, parallel bool) []ChainResult {
	chains := plan.Chains()
	results := make([]ChainResult, len(chains))

	if !parallel {
		for i, c := range chains {
			results[i] = e.ExecuteChain(ctx, c, opts)
		}
		return results
	}

	var g errgroup.Group
	for i, c := range chains {
		g.Go(func() error {
			results[i] = e.ExecuteChain(ctx, c, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ExpandImages expands glob patterns in args. Arguments without glob
// metacharacters are kept as given. Order is preserved; matches of a
// single pattern are sorted.
func (e *Engine) ExpandImages(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !fsops.HasGlobMeta(arg) {
			out = append(out, arg)
			continue
		}
		matches, err := e.fs.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrValidation, arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w %q", ErrNoMatch, arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}

// checkInputs verifies that the parameter file and every image exist.
func (e *Engine) checkInputs(parameterFile string, images []string) error {
	for _, p := range append([]string{parameterFile}, images...) {
		exists, err := e.fs.Exists(p)
		if err != nil {
			return &fsops.FilesystemError{Op: "stat", Path: p, Err: err}
		}
		if !exists {
			return &fsops.FilesystemError{Op: "stat", Path: p, Err: os.ErrNotExist}
		}
	}
	return nil
}

func imageEntry(ref planner.ImageRef) manifest.ImageEntry {
	return manifest.ImageEntry{Index: ref.Index, Path: ref.Path}
}

// manifestChains records every planned job with its outcome.
func manifestChains(plan *planner.Plan, results []ChainResult) []manifest.ChainEntry {
	out := make([]manifest.ChainEntry, 0, len(results))
	for i, chain := range plan.Chains() {
		res := results[i]
		entry := manifest.ChainEntry{Side: string(chain.Side), Jobs: []manifest.JobEntry{}}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}

		for _, jr := range res.Completed {
			je := jobEntry(jr.Job, manifest.StatusCompleted)
			je.TransformFile = jr.Transform.ParameterFile
			je.ResultImage = jr.Transform.ResultImage
			je.ComposedFile = jr.ComposedFile
			je.TransformModel = jr.TransformModel
			je.Checksum = jr.Checksum
			je.StartedAt = jr.StartedAt
			je.DurationMs = jr.Duration.Milliseconds()
			entry.Jobs = append(entry.Jobs, je)
		}
		if res.Failed != nil {
			je := jobEntry(*res.Failed, manifest.StatusFailed)
			var regErr *RegistrationFailureError
			if errors.As(res.Err, &regErr) {
				je.Error = regErr.Err.Error()
			}
			entry.Jobs = append(entry.Jobs, je)
		}
		for _, job := range res.Skipped {
			entry.Jobs = append(entry.Jobs, jobEntry(job, manifest.StatusSkipped))
		}
		out = append(out, entry)
	}
	return out
}

func jobEntry(job planner.Job, status manifest.JobStatus) manifest.JobEntry {
	return manifest.JobEntry{
		Step:   job.Step,
		Fixed:  imageEntry(job.Fixed),
		Moving: imageEntry(job.Moving),
		Output: job.Output,
		Status: status,
	}
}
