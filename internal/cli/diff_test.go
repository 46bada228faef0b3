package cli

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danieljhkim/regkit/internal/imaging"
)

// writeImage encodes a w x h image filled with c in the format implied by path.
func writeImage(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	data, err := imaging.EncodeForPath(img, path)
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeImage(t, a, 4, 3, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	writeImage(t, b, 4, 3, color.Gray{Y: 40})

	out, _, err := executeCommand(t, "", "diff", a, b)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(out, "diff.TIF") {
		t.Errorf("expected diff path in output:\n%s", out)
	}
	for _, name := range []string{"diff.TIF", "im1.TIF", "im2.TIF"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestDiff_JSONWithOptions(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeImage(t, a, 2, 2, color.Gray{Y: 10})
	writeImage(t, b, 2, 2, color.Gray{Y: 90})
	outDir := filepath.Join(dir, "check")

	out, _, err := executeCommand(t, "", "diff", "--json", "--cutoff", "1", "--ext", "png", "--out-dir", outDir, a, b)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got["diff"] != filepath.Join(outDir, "diff.png") {
		t.Errorf("diff = %q", got["diff"])
	}
	// Opaque RGBA sources decode as rgba even when every pixel is gray.
	if got["model1"] != "rgba" {
		t.Errorf("model1 = %q, want rgba", got["model1"])
	}
}

func TestDiff_Errors(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeImage(t, a, 2, 2, color.Gray{Y: 10})
	writeImage(t, b, 3, 2, color.Gray{Y: 10})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"one argument", []string{"diff", a}, "accepts 2 arg"},
		{"size mismatch", []string{"diff", a, b}, "sizes differ"},
		{"cutoff out of range", []string{"diff", "--cutoff", "50", a, a}, "cutoff"},
		{"missing file", []string{"diff", a, filepath.Join(dir, "nope.png")}, "nope.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
