// Package integration runs regkit workflows end to end on the real
// filesystem, with a shell script standing in for elastix.
package integration

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/danieljhkim/regkit/internal/clock"
	"github.com/danieljhkim/regkit/internal/confirm"
	"github.com/danieljhkim/regkit/internal/engine"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/hash"
	"github.com/danieljhkim/regkit/internal/imaging"
	"github.com/danieljhkim/regkit/internal/registrar"
)

// fakeElastixScript accepts the elastix arguments, writes a transform and
// copies the moving image as the result image. Moving images whose path
// contains $FAKE_ELASTIX_FAIL make it exit non-zero.
const fakeElastixScript = `#!/bin/sh
out=''
moving=''
while [ $# -gt 0 ]; do
  case "$1" in
    -out) out="$2"; shift ;;
    -m) moving="$2"; shift ;;
  esac
  shift
done
if [ -n "$FAKE_ELASTIX_FAIL" ]; then
  case "$moving" in *"$FAKE_ELASTIX_FAIL"*) echo "registration diverged" >&2; exit 2 ;; esac
fi
printf '(Transform "TranslationTransform")\n(NumberOfParameters 2)\n(TransformParameters 0.5 -1.25)\n' > "$out/TransformParameters.0.txt"
cp "$moving" "$out/result.0.png"
`

// testEnv is a work directory with an engine wired to real dependencies.
type testEnv struct {
	dir     string
	engine  *engine.Engine
	spans   *tracetest.SpanRecorder
	elastix *registrar.Elastix
}

// setupTestEngine creates an engine over the real filesystem in a temp dir.
func setupTestEngine(t *testing.T, c confirm.Confirmer) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake elastix script requires a POSIX shell")
	}

	dir := t.TempDir()
	binary := filepath.Join(dir, "bin", "elastix")
	if err := os.MkdirAll(filepath.Dir(binary), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binary, []byte(fakeElastixScript), 0755); err != nil {
		t.Fatal(err)
	}

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	elastix := registrar.NewElastix(binary)
	eng := engine.New(
		elastix,
		fsops.NewRealFS(),
		hash.NewSHA256Hasher(),
		&clock.RealClock{},
		c,
		engine.WithTracer(tp.Tracer("integration")),
	)
	return &testEnv{dir: dir, engine: eng, spans: spans, elastix: elastix}
}

// seedImages writes n PNG images with increasing brightness plus a
// parameter file and returns the image paths.
func (env *testEnv) seedImages(t *testing.T, n int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		for p := range img.Pix {
			img.Pix[p] = uint8(20*i + p)
		}
		img.SetGray(0, 0, color.Gray{Y: 0})

		data, err := imaging.Encode(img, imaging.FormatPNG)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(env.dir, "in", string(rune('a'+i))+".png")
		env.writeFile(t, path, data)
		paths = append(paths, path)
	}
	env.writeFile(t, env.parameterFile(), []byte("(Transform \"TranslationTransform\")\n"))
	return paths
}

func (env *testEnv) parameterFile() string {
	return filepath.Join(env.dir, "params", "translation.txt")
}

func (env *testEnv) writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

// spanCounts returns the number of ended spans per name.
func (env *testEnv) spanCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range env.spans.Ended() {
		counts[s.Name()]++
	}
	return counts
}
