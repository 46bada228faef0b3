package cli

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGray(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), 2, 2, color.RGBA{R: 255, A: 255})
	writeImage(t, filepath.Join(dir, "b.png"), 2, 2, color.RGBA{G: 255, A: 255})

	out, _, err := executeCommand(t, "", "gray", filepath.Join(dir, "*.png"))
	if err != nil {
		t.Fatalf("gray failed: %v", err)
	}
	if !strings.Contains(out, "Converted 2 images") {
		t.Errorf("expected summary:\n%s", out)
	}
	for _, name := range []string{"a_gray.TIF", "b_gray.TIF"} {
		if _, err := os.Stat(filepath.Join(dir, "gray", name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestGray_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	bad := filepath.Join(dir, "bad.png")
	writeImage(t, good, 2, 2, color.Gray{Y: 1})
	writeFile(t, bad, "not an image")

	out, _, err := executeCommand(t, "", "gray", "--json", "--out-dir", filepath.Join(dir, "g"), good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 images failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}

	var got grayJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(got.Converted) != 1 || got.Converted[0].Source != good {
		t.Errorf("converted = %+v", got.Converted)
	}
	if len(got.Failed) != 1 || got.Failed[0].Source != bad || got.Failed[0].Error == "" {
		t.Errorf("failed = %+v", got.Failed)
	}
	if !got.Created {
		t.Error("expected the output directory to be reported as created")
	}
}

func TestGray_ExistingDirPrompt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src, 1, 1, color.Gray{Y: 5})
	outDir := filepath.Join(dir, "gray")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	_, _, err := executeCommand(t, "n\n", "gray", src)
	if err == nil || !strings.Contains(err.Error(), "declined") {
		t.Fatalf("expected declined overwrite, got %v", err)
	}

	out, _, err := executeCommand(t, "y\n", "gray", src)
	if err != nil {
		t.Fatalf("gray failed after confirming: %v", err)
	}
	if !strings.Contains(out, "(y/n)") {
		t.Errorf("expected a prompt:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "a_gray.TIF")); err != nil {
		t.Errorf("output not written: %v", err)
	}
}
