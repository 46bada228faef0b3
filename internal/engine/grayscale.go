package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/danieljhkim/regkit/internal/ctxlog"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/imaging"
	"github.com/danieljhkim/regkit/internal/tracing"
)

// GrayDirName is the default output directory next to the inputs.
const GrayDirName = "gray"

const graySuffix = "_gray"

// Grayscale converts every input image to 8-bit grayscale.
//
// Each input becomes <outdir>/<stem>_gray<ext>. Earlier outputs found in the
// output directory are skipped. A file that cannot be read, decoded or
// written is recorded in Failed and the batch continues.
func (e *Engine) Grayscale(ctx context.Context, req *GrayscaleRequest) (*GrayscaleResult, error) {
	images, err := e.ExpandImages(req.Images)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images given", ErrValidation)
	}
	ext := extensionOrDefault(req.Extension)
	if _, err := imaging.FormatFromPath("x" + ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(images[0]), GrayDirName)
	}

	created, err := fsops.PrepareOutputDir(e.fs, outDir, e.confirmer)
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, tracing.SpanGrayscale, trace.WithAttributes(
		attribute.String(tracing.AttrOutputDir, outDir),
		attribute.Int(tracing.AttrImageCount, len(images)),
	))
	defer span.End()
	logger := ctxlog.FromContext(ctx)

	result := &GrayscaleResult{OutputDir: outDir, Created: created}
	for _, src := range images {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		base := filepath.Base(src)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if strings.HasSuffix(stem, graySuffix) && filepath.Clean(filepath.Dir(src)) == filepath.Clean(outDir) {
			result.Skipped = append(result.Skipped, src)
			continue
		}
		dst := filepath.Join(outDir, stem+graySuffix+ext)

		model, err := e.convertGray(src, dst)
		if err != nil {
			logger.Warn("conversion failed", "path", src, "error", err)
			result.Failed = append(result.Failed, FailedFile{Source: src, Err: err})
			continue
		}
		logger.Debug("converted", "path", src, "output", dst, "model", model)
		result.Converted = append(result.Converted, ConvertedFile{Source: src, Output: dst, Model: model})
	}

	return result, nil
}

func (e *Engine) convertGray(src, dst string) (string, error) {
	gray, model, err := e.loadGray(src)
	if err != nil {
		return "", err
	}
	if err := e.writeImage(dst, gray); err != nil {
		return "", err
	}
	return model, nil
}
