package registrar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultElastixBinary is looked up on PATH when no binary is configured.
const DefaultElastixBinary = "elastix"

// TransformParametersName is the file elastix writes for the first parameter file.
const TransformParametersName = "TransformParameters.0.txt"

// outputTailLines is how much tool output is kept in a ToolError.
const outputTailLines = 20

// ErrNoTransform is returned when the tool exits cleanly without writing a transform.
var ErrNoTransform = errors.New("registration produced no transform parameters")

// ToolError reports a failed run of the registration tool.
type ToolError struct {
	Binary string
	Args   []string
	Err    error
	Output string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Binary, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Elastix runs the elastix executable.
type Elastix struct {
	Binary string
}

// NewElastix creates an Elastix registrar. An empty binary means DefaultElastixBinary.
func NewElastix(binary string) *Elastix {
	if binary == "" {
		binary = DefaultElastixBinary
	}
	return &Elastix{Binary: binary}
}

// IsAvailable reports whether the binary can be found.
func (e *Elastix) IsAvailable() bool {
	_, err := exec.LookPath(e.Binary)
	return err == nil
}

// Args returns the command-line arguments for req.
func (e *Elastix) Args(req Request) []string {
	return []string{
		"-f", req.Fixed,
		"-m", req.Moving,
		"-p", req.ParameterFile,
		"-out", req.OutputDir,
	}
}

// Register runs elastix for req and returns the artifacts it wrote.
func (e *Elastix) Register(ctx context.Context, req Request) (Transform, error) {
	args := e.Args(req)
	cmd := exec.CommandContext(ctx, e.Binary, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return Transform{}, &ToolError{
			Binary: e.Binary,
			Args:   args,
			Err:    err,
			Output: tail(output.String(), outputTailLines),
		}
	}

	params := filepath.Join(req.OutputDir, TransformParametersName)
	if _, err := os.Stat(params); err != nil {
		return Transform{}, fmt.Errorf("%w: %s", ErrNoTransform, params)
	}

	transform := Transform{ParameterFile: params}
	if matches, _ := filepath.Glob(filepath.Join(req.OutputDir, "result.0.*")); len(matches) > 0 {
		transform.ResultImage = matches[0]
	}
	return transform, nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
