package engine

import (
	"time"

	"github.com/danieljhkim/regkit/internal/planner"
	"github.com/danieljhkim/regkit/internal/registrar"
)

// RunRequest represents a request to register an image sequence.
type RunRequest struct {
	// Images are paths or glob patterns, in sequence order
	Images []string

	// OutputDir receives one directory per job plus the manifest
	OutputDir string

	// ParameterFile is the registration parameter file
	ParameterFile string

	// FixedIndex selects the reference image; nil uses the middle image
	FixedIndex *int

	// Parallel runs the left and right chains concurrently
	Parallel bool

	// DryRun plans without touching the filesystem
	DryRun bool
}

// RunResult represents the outcome of a registration run.
type RunResult struct {
	// RunID identifies the run in the manifest (empty on dry runs)
	RunID string

	// Plan is the generated plan
	Plan *planner.Plan

	OutputDir string

	// Created is true when OutputDir did not exist before the run
	Created bool

	// ParameterCopy is the parameter file copy inside OutputDir
	ParameterCopy string

	// ManifestPath is where the manifest was written
	ManifestPath string

	// Chains holds the left chain result first, then the right one
	Chains []ChainResult

	DryRun bool
}

// Completed returns the number of completed jobs across both chains.
func (r *RunResult) Completed() int {
	n := 0
	for _, c := range r.Chains {
		n += len(c.Completed)
	}
	return n
}

// Failed returns the chains that stopped early.
func (r *RunResult) Failed() []ChainResult {
	var out []ChainResult
	for _, c := range r.Chains {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// ChainOptions carries the run-wide settings a chain needs.
type ChainOptions struct {
	// ParameterFile is handed to the registrar for every job
	ParameterFile string

	// OutputDir is the run directory job outputs are relative to
	OutputDir string
}

// ChainResult is the outcome of one chain.
type ChainResult struct {
	Side planner.Side

	// Completed holds the jobs that finished, in chain order
	Completed []JobResult

	// Failed is the job that stopped the chain, nil if none did
	Failed *planner.Job

	// Skipped holds the jobs that never ran
	Skipped []planner.Job

	// Err is a *RegistrationFailureError or a context error, nil on success
	Err error
}

// JobResult is the outcome of one completed job.
type JobResult struct {
	Job planner.Job

	// Dir is the job's output directory
	Dir string

	// Transform is what the registrar returned
	Transform registrar.Transform

	// ComposedFile chains this transform onto the previous job's
	ComposedFile string

	// TransformModel is the Transform entry of the parameter file
	TransformModel string

	// Checksum is the hash of ComposedFile
	Checksum string

	StartedAt time.Time
	Duration  time.Duration
}

// CompareRequest represents a request to visualize the difference of two images.
type CompareRequest struct {
	Image1 string
	Image2 string

	// OutputDir defaults to the directory of Image1
	OutputDir string

	// Cutoff is the autocontrast percentage clipped at each end
	Cutoff float64

	// Extension selects the output format (default .TIF)
	Extension string
}

// CompareResult represents the files written by Compare.
type CompareResult struct {
	DiffPath   string `json:"diff"`
	Image1Path string `json:"image1"`
	Image2Path string `json:"image2"`

	// Model1 and Model2 are the color models of the source images
	Model1 string `json:"model1"`
	Model2 string `json:"model2"`
}

// GrayscaleRequest represents a request to convert images to grayscale.
type GrayscaleRequest struct {
	// Images are paths or glob patterns
	Images []string

	// OutputDir defaults to <dir of first image>/gray
	OutputDir string

	// Extension selects the output format (default .TIF)
	Extension string
}

// GrayscaleResult represents the outcome of a grayscale conversion.
type GrayscaleResult struct {
	OutputDir string
	Created   bool

	// Converted maps each converted input to its output path
	Converted []ConvertedFile

	// Skipped holds earlier outputs that were passed back in
	Skipped []string

	Failed []FailedFile
}

// ConvertedFile is one successful conversion.
type ConvertedFile struct {
	Source string
	Output string
	Model  string
}

// FailedFile is one conversion that failed.
type FailedFile struct {
	Source string
	Err    error
}
