package manifest

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is bumped whenever the JSON layout changes incompatibly.
const SchemaVersion = 1

// JobStatus is the outcome of a single job.
type JobStatus string

const (
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusSkipped   JobStatus = "skipped"
)

// Manifest describes a registration run.
type Manifest struct {
	// Version is the schema version
	Version int `json:"version"`

	// RunID uniquely identifies the run
	RunID string `json:"runId"`

	// StartedAt and FinishedAt bound the execution of both chains
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// OutputDir is the root directory of the run
	OutputDir string `json:"outputDir"`

	// ParameterFile is the parameter file as given on the command line
	ParameterFile string `json:"parameterFile"`

	// ParameterCopy is the copy kept in the output directory
	ParameterCopy string `json:"parameterCopy,omitempty"`

	// Images is the expanded, ordered image sequence
	Images []string `json:"images"`

	// Fixed is the reference image every transform maps to
	Fixed ImageEntry `json:"fixed"`

	// Parallel is true when the chains ran concurrently
	Parallel bool `json:"parallel"`

	// Chains holds the left chain first, then the right chain
	Chains []ChainEntry `json:"chains"`
}

// ImageEntry is a position in the sequence.
type ImageEntry struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

// ChainEntry is the outcome of one chain.
type ChainEntry struct {
	Side  string     `json:"side"`
	Error string     `json:"error,omitempty"`
	Jobs  []JobEntry `json:"jobs"`
}

// JobEntry is the outcome of one job.
type JobEntry struct {
	Step   int        `json:"step"`
	Fixed  ImageEntry `json:"fixed"`
	Moving ImageEntry `json:"moving"`

	// Output is the job directory relative to OutputDir
	Output string    `json:"output"`
	Status JobStatus `json:"status"`

	// TransformFile is the parameter file written by the registration tool
	TransformFile string `json:"transformFile,omitempty"`

	// ComposedFile chains TransformFile onto the previous job of the chain
	ComposedFile string `json:"composedFile,omitempty"`

	// ResultImage is the resampled moving image, if the tool wrote one
	ResultImage string `json:"resultImage,omitempty"`

	// TransformModel is the Transform entry of the parameter file
	TransformModel string `json:"transformModel,omitempty"`

	// Checksum is the hash of ComposedFile
	Checksum string `json:"checksum,omitempty"`

	StartedAt  time.Time `json:"startedAt,omitzero"`
	DurationMs int64     `json:"durationMs,omitempty"`

	Error string `json:"error,omitempty"`
}

// New creates an empty manifest with a fresh RunID.
func New(outputDir, parameterFile string, startedAt time.Time) *Manifest {
	return &Manifest{
		Version:       SchemaVersion,
		RunID:         uuid.NewString(),
		StartedAt:     startedAt,
		OutputDir:     outputDir,
		ParameterFile: parameterFile,
		Images:        []string{},
		Chains:        []ChainEntry{},
	}
}

// Counts returns the number of jobs per status across all chains.
func (m *Manifest) Counts() map[JobStatus]int {
	counts := make(map[JobStatus]int)
	for _, c := range m.Chains {
		for _, j := range c.Jobs {
			counts[j.Status]++
		}
	}
	return counts
}
