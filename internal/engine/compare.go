package engine

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/danieljhkim/regkit/internal/ctxlog"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/imaging"
	"github.com/danieljhkim/regkit/internal/tracing"
)

// DefaultExtension is the output extension of the imaging utilities.
const DefaultExtension = ".TIF"

// Compare writes an autocontrasted difference image of two aligned images,
// together with the grayscale versions of both inputs.
//
// Outputs are diff<ext>, im1<ext> and im2<ext> in the output directory,
// which defaults to the directory of the first image.
func (e *Engine) Compare(ctx context.Context, req *CompareRequest) (*CompareResult, error) {
	if req.Image1 == "" || req.Image2 == "" {
		return nil, fmt.Errorf("%w: two images are required", ErrValidation)
	}
	if req.Cutoff < 0 || req.Cutoff >= 50 {
		return nil, fmt.Errorf("%w: cutoff must be in [0, 50), got %v", ErrValidation, req.Cutoff)
	}
	ext := extensionOrDefault(req.Extension)
	if _, err := imaging.FormatFromPath("x" + ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(req.Image1)
	}

	ctx, span := e.tracer.Start(ctx, tracing.SpanCompare, trace.WithAttributes(
		attribute.String("compare.image1", req.Image1),
		attribute.String("compare.image2", req.Image2),
	))
	defer span.End()
	logger := ctxlog.FromContext(ctx)

	gray1, model1, err := e.loadGray(req.Image1)
	if err != nil {
		return nil, err
	}
	gray2, model2, err := e.loadGray(req.Image2)
	if err != nil {
		return nil, err
	}
	logger.Debug("images loaded", "model1", model1, "model2", model2)

	diff, err := imaging.Difference(gray2, gray1)
	if err != nil {
		return nil, fmt.Errorf("cannot compare %s and %s: %w", req.Image1, req.Image2, err)
	}
	diff = imaging.AutoContrast(diff, req.Cutoff)

	if err := e.fs.MkdirAll(outDir, 0755); err != nil {
		return nil, &fsops.FilesystemError{Op: "mkdir", Path: outDir, Err: err}
	}

	result := &CompareResult{
		DiffPath:   filepath.Join(outDir, "diff"+ext),
		Image1Path: filepath.Join(outDir, "im1"+ext),
		Image2Path: filepath.Join(outDir, "im2"+ext),
		Model1:     model1,
		Model2:     model2,
	}
	outputs := []struct {
		path string
		img  image.Image
	}{
		{result.DiffPath, diff},
		{result.Image1Path, gray1},
		{result.Image2Path, gray2},
	}
	for _, o := range outputs {
		if err := e.writeImage(o.path, o.img); err != nil {
			return nil, err
		}
	}

	logger.Info("difference written", "path", result.DiffPath)
	return result, nil
}

// loadGray decodes path and converts it to 8-bit grayscale.
func (e *Engine) loadGray(path string) (*image.Gray, string, error) {
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return nil, "", &fsops.FilesystemError{Op: "read", Path: path, Err: err}
	}
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return imaging.Grayscale(img), imaging.ModelName(img), nil
}

func (e *Engine) writeImage(path string, img image.Image) error {
	data, err := imaging.EncodeForPath(img, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := e.fs.AtomicWrite(path, data, 0644); err != nil {
		return &fsops.FilesystemError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func extensionOrDefault(ext string) string {
	if ext == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
