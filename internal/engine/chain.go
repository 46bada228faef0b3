package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danieljhkim/regkit/internal/ctxlog"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/planner"
	"github.com/danieljhkim/regkit/internal/registrar"
	"github.com/danieljhkim/regkit/internal/tracing"
	"github.com/danieljhkim/regkit/internal/transform"
)

// ExecuteChain runs the jobs of chain in order.
//
// Each job registers its moving image onto its anchor, then the produced
// parameter file is chained onto the absolute path of the previous job's
// composed file, so the
// composed file of job k maps the fixed reference to the moving image of
// job k. The first failure stops the chain: completed results are kept and
// the remaining jobs are reported as skipped. Cancelling ctx stops the
// chain before the next job.
func (e *Engine) ExecuteChain(ctx context.Context, chain planner.Chain, opts ChainOptions) ChainResult {
	result := ChainResult{Side: chain.Side}
	if chain.IsEmpty() {
		return result
	}

	logger := ctxlog.FromContext(ctx).With("side", string(chain.Side))
	ctx, span := e.tracer.Start(ctx, tracing.SpanChain, trace.WithAttributes(
		attribute.String(tracing.AttrChainSide, string(chain.Side)),
		attribute.Int(tracing.AttrChainLen, chain.Len()),
	))
	defer span.End()

	logger.Info("chain started", "jobs", chain.Len())

	previous := ""
	for i, job := range chain.Jobs {
		if err := ctx.Err(); err != nil {
			result.Err = fmt.Errorf("%s chain stopped before job %d: %w", chain.Side, i, err)
			result.Skipped = append(result.Skipped, chain.Jobs[i:]...)
			logger.Warn("chain cancelled", "job", i, "skipped", len(result.Skipped))
			span.SetStatus(codes.Error, "cancelled")
			return result
		}

		jr, err := e.executeJob(ctx, job, opts, previous)
		if err != nil {
			failed := job
			result.Failed = &failed
			result.Skipped = append(result.Skipped, chain.Jobs[i+1:]...)
			result.Err = &RegistrationFailureError{
				Side:     chain.Side,
				JobIndex: i,
				Fixed:    job.Fixed,
				Moving:   job.Moving,
				Err:      err,
			}
			logger.Error("registration failed",
				"job", i,
				"fixed", job.Fixed.Path,
				"moving", job.Moving.Path,
				"skipped", len(result.Skipped),
				"error", err)
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, err.Error())
			return result
		}

		result.Completed = append(result.Completed, jr)
		previous = jr.ComposedFile
		logger.Info("job completed",
			"job", i,
			"fixed", job.Fixed.Path,
			"moving", job.Moving.Path,
			"model", jr.TransformModel,
			"duration", jr.Duration)
	}

	logger.Info("chain finished", "completed", len(result.Completed))
	return result
}

// executeJob registers one pair and writes its composed transform.
// previous is the composed file of the preceding job, "" for the first job.
func (e *Engine) executeJob(ctx context.Context, job planner.Job, opts ChainOptions, previous string) (JobResult, error) {
	dir := filepath.Join(opts.OutputDir, filepath.FromSlash(job.Output))

	ctx, span := e.tracer.Start(ctx, tracing.SpanJob, trace.WithAttributes(
		attribute.String(tracing.AttrChainSide, string(job.Side)),
		attribute.Int(tracing.AttrJobStep, job.Step),
		attribute.String(tracing.AttrJobFixed, job.Fixed.Path),
		attribute.String(tracing.AttrJobMoving, job.Moving.Path),
		attribute.String(tracing.AttrJobOutput, job.Output),
	))
	defer span.End()

	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return JobResult{}, &fsops.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	start := e.clock.Now()
	t, err := e.registrar.Register(ctx, registrar.Request{
		Fixed:         job.Fixed.Path,
		Moving:        job.Moving.Path,
		ParameterFile: opts.ParameterFile,
		OutputDir:     dir,
	})
	if err != nil {
		span.RecordError(err)
		return JobResult{}, err
	}

	data, err := e.fs.ReadFile(t.ParameterFile)
	if err != nil {
		return JobResult{}, &fsops.FilesystemError{Op: "read", Path: t.ParameterFile, Err: err}
	}
	params, err := transform.Parse(data)
	if err != nil {
		return JobResult{}, fmt.Errorf("invalid transform parameters %s: %w", t.ParameterFile, err)
	}

	link := previous
	if link != "" {
		if link, err = filepath.Abs(link); err != nil {
			return JobResult{}, &fsops.FilesystemError{Op: "resolve", Path: previous, Err: err}
		}
	}
	composed := transform.Compose(data, link)
	composedPath := filepath.Join(dir, transform.ComposedFileName)
	if err := e.fs.AtomicWrite(composedPath, composed, 0644); err != nil {
		return JobResult{}, &fsops.FilesystemError{Op: "write", Path: composedPath, Err: err}
	}

	return JobResult{
		Job:            job,
		Dir:            dir,
		Transform:      t,
		ComposedFile:   composedPath,
		TransformModel: params.String(transform.KeyTransform),
		Checksum:       e.hasher.Sum(composed),
		StartedAt:      start,
		Duration:       e.clock.Now().Sub(start),
	}, nil
}
