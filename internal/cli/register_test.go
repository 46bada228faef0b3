package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/danieljhkim/regkit/internal/engine"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/manifest"
	"github.com/danieljhkim/regkit/internal/planner"
	"github.com/danieljhkim/regkit/internal/transform"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeFakeElastix writes a script that accepts the elastix arguments and
// writes a transform, failing for any moving image whose path contains failOn.
func writeFakeElastix(t *testing.T, failOn string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake elastix script requires a POSIX shell")
	}
	script := `#!/bin/sh
out=''
moving=''
while [ $# -gt 0 ]; do
  case "$1" in
    -out) out="$2"; shift ;;
    -m) moving="$2"; shift ;;
  esac
  shift
done
`
	if failOn != "" {
		script += `case "$moving" in *` + failOn + `*) echo "itk error" >&2; exit 3 ;; esac
`
	}
	script += `printf '(Transform "EulerTransform")\n(NumberOfParameters 3)\n' > "$out/TransformParameters.0.txt"
`
	path := filepath.Join(t.TempDir(), "elastix")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write fake elastix: %v", err)
	}
	return path
}

// seedSequence writes five placeholder images and a parameter file into a
// temp dir and returns the dir.
func seedSequence(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		writeFile(t, filepath.Join(dir, name+".tif"), name)
	}
	writeFile(t, filepath.Join(dir, "affine.txt"), "(Transform \"AffineTransform\")\n")
	return dir
}

func sequenceArgs(dir string) []string {
	var args []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		args = append(args, filepath.Join(dir, name+".tif"))
	}
	return append(args, filepath.Join(dir, "out"), filepath.Join(dir, "affine.txt"))
}

func TestParseRegisterArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		images    []string
		outputDir string
		params    string
		fixed     *int
		wantErr   bool
	}{
		{
			name:      "minimal",
			args:      []string{"a.tif", "out", "p.txt"},
			images:    []string{"a.tif"},
			outputDir: "out",
			params:    "p.txt",
		},
		{
			name:      "trailing index",
			args:      []string{"a.tif", "b.tif", "out", "p.txt", "0"},
			images:    []string{"a.tif", "b.tif"},
			outputDir: "out",
			params:    "p.txt",
			fixed:     intPtr(0),
		},
		{
			name:      "single image with index",
			args:      []string{"a.tif", "out", "p.txt", "0"},
			images:    []string{"a.tif"},
			outputDir: "out",
			params:    "p.txt",
			fixed:     intPtr(0),
		},
		{
			name:      "numeric parameter file with three args",
			args:      []string{"a.tif", "out", "7"},
			images:    []string{"a.tif"},
			outputDir: "out",
			params:    "7",
		},
		{
			name:      "negative index kept for planner",
			args:      []string{"a.tif", "b.tif", "out", "p.txt", "-1"},
			images:    []string{"a.tif", "b.tif"},
			outputDir: "out",
			params:    "p.txt",
			fixed:     intPtr(-1),
		},
		{
			name:      "non numeric tail is a parameter file",
			args:      []string{"a.tif", "b.tif", "out", "p.txt"},
			images:    []string{"a.tif", "b.tif"},
			outputDir: "out",
			params:    "p.txt",
		},
		{
			name:    "too few",
			args:    []string{"out", "p.txt"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRegisterArgs(tt.args)
			if tt.wantErr {
				if !errors.Is(err, engine.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRegisterArgs() error = %v", err)
			}
			if strings.Join(got.Images, ",") != strings.Join(tt.images, ",") {
				t.Errorf("Images = %v, want %v", got.Images, tt.images)
			}
			if got.OutputDir != tt.outputDir || got.ParameterFile != tt.params {
				t.Errorf("got output %q params %q", got.OutputDir, got.ParameterFile)
			}
			switch {
			case tt.fixed == nil && got.FixedIndex != nil:
				t.Errorf("FixedIndex = %d, want nil", *got.FixedIndex)
			case tt.fixed != nil && (got.FixedIndex == nil || *got.FixedIndex != *tt.fixed):
				t.Errorf("FixedIndex = %v, want %d", got.FixedIndex, *tt.fixed)
			}
		})
	}
}

func intPtr(i int) *int {
	return &i
}

func TestRegister_TooFewArgsShowsHelp(t *testing.T) {
	out, _, err := executeCommand(t, "", "register", "a.tif", "out")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage, got:\n%s", out)
	}
}

func TestRegister_DryRun(t *testing.T) {
	t.Chdir(t.TempDir())
	args := append([]string{"register", "--dry-run"}, "a.tif", "b.tif", "c.tif", "d.tif", "e.tif", "out", "affine.txt")
	out, _, err := executeCommand(t, "", args...)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	for _, want := range []string{"dry run", "c.tif (index 2)", "left chain (2 jobs)", "right chain (2 jobs)", "left/001_b", "left/000_a", "right/003_d", "right/004_e", "4 jobs planned"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat("out"); err == nil {
		t.Error("dry run must not create the output directory")
	}
}

func TestRegister_DryRunJSON(t *testing.T) {
	out, _, err := executeCommand(t, "", "register", "--dry-run", "--json",
		"a.tif", "b.tif", "c.tif", "d.tif", "out", "affine.txt", "0")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	var got runJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !got.DryRun || got.Total != 3 || got.Fixed.Index != 0 {
		t.Errorf("unexpected summary: %+v", got)
	}
	if len(got.Chains) != 2 || len(got.Chains[0].Jobs) != 0 {
		t.Fatalf("expected empty left chain, got %+v", got.Chains)
	}
	right := got.Chains[1].Jobs
	if len(right) != 3 || right[0].Moving != "b.tif" || right[2].Fixed != "c.tif" {
		t.Errorf("unexpected right chain: %+v", right)
	}
	for _, j := range right {
		if j.Status != statusPlanned {
			t.Errorf("job %d status = %q", j.Step, j.Status)
		}
	}
}

func TestRegister_InvalidFixedIndex(t *testing.T) {
	_, _, err := executeCommand(t, "", "register", "--dry-run", "a.tif", "b.tif", "out", "affine.txt", "5")
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestRegister_NegativeFixedIndex(t *testing.T) {
	t.Run("after separator reaches the planner", func(t *testing.T) {
		_, _, err := executeCommand(t, "", "register", "--dry-run", "a.tif", "b.tif", "c.tif", "out", "affine.txt", "--", "-1")
		var invalid *planner.InvalidReferenceError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidReferenceError, got %v", err)
		}
		if invalid.Index != -1 || invalid.Length != 3 {
			t.Errorf("unexpected error %+v", invalid)
		}
	})

	t.Run("without separator names it", func(t *testing.T) {
		_, _, err := executeCommand(t, "", "register", "--dry-run", "a.tif", "b.tif", "c.tif", "out", "affine.txt", "-12")
		if !errors.Is(err, engine.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "-- -12") {
			t.Errorf("expected a hint about --, got %q", err)
		}
	})
}

func TestRegister_MissingTool(t *testing.T) {
	dir := seedSequence(t)
	args := append([]string{"register", "--elastix", filepath.Join(dir, "no-such-elastix")}, sequenceArgs(dir)...)

	_, _, err := executeCommand(t, "", args...)
	if !errors.Is(err, errToolMissing) {
		t.Fatalf("expected errToolMissing, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); err == nil {
		t.Error("output directory must not be created without the tool")
	}
}

func TestRegister_EndToEnd(t *testing.T) {
	dir := seedSequence(t)
	binary := writeFakeElastix(t, "")
	args := append([]string{"register", "--elastix", binary}, sequenceArgs(dir)...)

	out, _, err := executeCommand(t, "", args...)
	if err != nil {
		t.Fatalf("register failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Registered 4 images") {
		t.Errorf("expected success summary:\n%s", out)
	}

	outDir := filepath.Join(dir, "out")
	if _, err := os.Stat(filepath.Join(outDir, "affine.txt")); err != nil {
		t.Errorf("parameter file not copied: %v", err)
	}

	// The outer left job chains onto the inner one.
	data, err := os.ReadFile(filepath.Join(outDir, "left", "000_a", transform.ComposedFileName))
	if err != nil {
		t.Fatalf("composed transform missing: %v", err)
	}
	params, err := transform.Parse(data)
	if err != nil {
		t.Fatalf("parse composed transform: %v", err)
	}
	wantInitial := filepath.Join(outDir, "left", "001_b", transform.ComposedFileName)
	if got := params.String(transform.KeyInitialTransform); got != wantInitial {
		t.Errorf("initial transform = %q, want %q", got, wantInitial)
	}

	m, err := manifest.NewFileStore(fsops.NewRealFS()).Load(outDir)
	if err != nil {
		t.Fatalf("manifest not readable: %v", err)
	}
	if counts := m.Counts(); counts[manifest.StatusCompleted] != 4 {
		t.Errorf("manifest counts = %v", counts)
	}
}

func TestRegister_PartialFailureReport(t *testing.T) {
	dir := seedSequence(t)
	binary := writeFakeElastix(t, "d.tif")
	args := append([]string{"register", "--parallel", "--elastix", binary}, sequenceArgs(dir)...)

	out, _, err := executeCommand(t, "", args...)
	if !errors.Is(err, engine.ErrPartialRun) {
		t.Fatalf("expected ErrPartialRun, got %v", err)
	}
	var failure *engine.RegistrationFailureError
	if !errors.As(err, &failure) || failure.Moving.Index != 3 {
		t.Fatalf("expected failure on d.tif, got %v", err)
	}

	for _, want := range []string{"right chain stopped", "right chain skipped 1 job", "Registered 2 of 4 images", "failed", "skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}

	// The left chain is unaffected.
	if _, err := os.Stat(filepath.Join(dir, "out", "left", "000_a", transform.ComposedFileName)); err != nil {
		t.Errorf("left chain incomplete: %v", err)
	}
}

func TestRegister_OverwriteDeclined(t *testing.T) {
	dir := seedSequence(t)
	binary := writeFakeElastix(t, "")
	outDir := filepath.Join(dir, "out")
	writeFile(t, filepath.Join(outDir, "keep.txt"), "keep")
	args := append([]string{"register", "--elastix", binary}, sequenceArgs(dir)...)

	out, _, err := executeCommand(t, "maybe\nn\n", args...)
	var declined *fsops.OverwriteDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected OverwriteDeclinedError, got %v", err)
	}
	if strings.Count(out, "(y/n)") != 2 {
		t.Errorf("expected the prompt to repeat once:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "keep.txt")); err != nil {
		t.Errorf("existing output must survive a declined overwrite: %v", err)
	}
}

func TestRegister_OverwriteWithYes(t *testing.T) {
	dir := seedSequence(t)
	binary := writeFakeElastix(t, "")
	outDir := filepath.Join(dir, "out")
	writeFile(t, filepath.Join(outDir, "stale.txt"), "stale")
	args := append([]string{"register", "-y", "--elastix", binary}, sequenceArgs(dir)...)

	out, _, err := executeCommand(t, "", args...)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if strings.Contains(out, "(y/n)") {
		t.Errorf("--yes must not prompt:\n%s", out)
	}
	if !strings.Contains(out, "Overwritten") {
		t.Errorf("expected the overwrite to be reported:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "left", "001_b", transform.ComposedFileName)); err != nil {
		t.Errorf("run did not write into the existing directory: %v", err)
	}
}
