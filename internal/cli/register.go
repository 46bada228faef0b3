package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danieljhkim/regkit/internal/engine"
	"github.com/danieljhkim/regkit/internal/manifest"
	"github.com/danieljhkim/regkit/internal/planner"
)

var (
	registerParallel bool
	registerDryRun   bool
	registerYes      bool
	registerElastix  string
)

// errToolMissing is returned when the registration binary cannot be found.
var errToolMissing = errors.New("registration tool not available")

// statusPlanned marks jobs of a dry run.
const statusPlanned = "planned"

var registerCmd = &cobra.Command{
	Use:   "register <images>... <output-dir> <parameter-file> [fixed-index]",
	Short: "Register an image sequence to a fixed reference image",
	Long: `Register an ordered image sequence to one fixed reference image.

Images left of the reference are registered outward towards the first image,
images right of it outward towards the last. Each job registers an image to
its already-registered neighbour and chains the neighbour's transform, so every
result is aligned to the reference.

The fixed index is 0-based and defaults to the middle image. Image arguments
may be glob patterns; matches are sorted and expanded in place. Job outputs go
to <output-dir>/left/NNN_<stem> and <output-dir>/right/NNN_<stem>, next to a
copy of the parameter file and a manifest.json describing the run.

A negative fixed index reads as a flag; pass it after -- to have it checked.`,
	Example: `  regkit register scans/*.tif out params/affine.txt
  regkit register a.tif b.tif c.tif d.tif e.tif out affine.txt 0
  regkit register a.tif b.tif c.tif out affine.txt -- -1
  regkit register --dry-run scans/*.tif out affine.txt`,
	Args: cobra.ArbitraryArgs,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().BoolVar(&registerParallel, "parallel", false, "Run the left and right chains concurrently")
	registerCmd.Flags().BoolVar(&registerDryRun, "dry-run", false, "Print the plan without running registrations")
	registerCmd.Flags().BoolVarP(&registerYes, "yes", "y", false, "Overwrite an existing output directory without asking")
	registerCmd.Flags().StringVar(&registerElastix, "elastix", "", "elastix executable (default: elastix in PATH)")
	registerCmd.SetFlagErrorFunc(registerFlagError)
}

// registerFlagError points a negative fixed index, which pflag rejects as
// an unknown shorthand, at the -- separator.
func registerFlagError(cmd *cobra.Command, err error) error {
	var notExist *pflag.NotExistError
	if errors.As(err, &notExist) && isDigits(notExist.GetSpecifiedShortnames()) {
		idx := "-" + notExist.GetSpecifiedShortnames()
		return fmt.Errorf("%w: fixed index %s must follow --, as in: %s ... -- %s",
			engine.ErrValidation, idx, cmd.CommandPath(), idx)
	}
	return err
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// registerArgs are the positional arguments of register.
type registerArgs struct {
	Images        []string
	OutputDir     string
	ParameterFile string
	FixedIndex    *int
}

// parseRegisterArgs splits positional arguments. With at least four
// arguments a trailing integer is the fixed index; otherwise the last two
// arguments are the output directory and the parameter file.
func parseRegisterArgs(args []string) (registerArgs, error) {
	if len(args) < 3 {
		return registerArgs{}, fmt.Errorf("%w: expected <images>... <output-dir> <parameter-file> [fixed-index]", engine.ErrValidation)
	}

	var parsed registerArgs
	rest := args
	if len(args) >= 4 {
		if idx, err := strconv.Atoi(args[len(args)-1]); err == nil {
			parsed.FixedIndex = &idx
			rest = args[:len(args)-1]
		}
	}

	parsed.Images = rest[:len(rest)-2]
	parsed.OutputDir = rest[len(rest)-2]
	parsed.ParameterFile = rest[len(rest)-1]
	return parsed, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	if len(args) < 3 {
		return cmd.Help()
	}

	parsed, err := parseRegisterArgs(args)
	if err != nil {
		return err
	}

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	s, err := newSession(cmd, cfg, registerYes)
	if err != nil {
		return err
	}
	defer s.close()

	if !registerDryRun && !s.elastix.IsAvailable() {
		return fmt.Errorf("%w: %q not found, install elastix or set --elastix", errToolMissing, s.elastix.Binary)
	}

	result, runErr := s.engine.Run(s.ctx, &engine.RunRequest{
		Images:        parsed.Images,
		OutputDir:     parsed.OutputDir,
		ParameterFile: parsed.ParameterFile,
		FixedIndex:    parsed.FixedIndex,
		Parallel:      cfg.Register.Parallel,
		DryRun:        registerDryRun,
	})
	if result == nil {
		return runErr
	}

	if jsonOutput {
		if err := outputJSON(cmd.OutOrStdout(), newRunJSON(result, runErr)); err != nil {
			return err
		}
		return runErr
	}

	printRunResult(newPrinter(cmd.OutOrStdout()), result)
	return runErr
}

func printRunResult(p *printer, result *engine.RunResult) {
	plan := result.Plan

	if result.DryRun {
		p.Section("Registration plan (dry run)")
	} else {
		p.Section("Registration")
	}
	if result.RunID != "" {
		p.LabelValue("Run", result.RunID)
	}
	p.LabelValue("Images", strconv.Itoa(plan.Sequence.Len()))
	p.LabelValue("Fixed", fmt.Sprintf("%s (index %d)", plan.Fixed.Path, plan.Fixed.Index))
	p.LabelValue("Output", result.OutputDir)
	if !result.DryRun && !result.Created {
		p.LabelValueWithColor("Overwritten", "yes", warningColor)
	}

	for i, chain := range plan.Chains() {
		var chainResult *engine.ChainResult
		if i < len(result.Chains) {
			chainResult = &result.Chains[i]
		}

		p.Info("")
		p.Subsection(fmt.Sprintf("%s chain (%s)", chain.Side, countNoun(chain.Len(), "job", "jobs")))
		if chain.IsEmpty() {
			p.EmptyState("nothing to register")
			continue
		}

		rows := make([][]string, 0, chain.Len())
		for _, job := range chain.Jobs {
			rows = append(rows, []string{
				strconv.Itoa(job.Step),
				job.Moving.Path,
				job.Fixed.Path,
				job.Output,
				jobStatus(job, chainResult),
			})
		}
		p.Table([]string{"STEP", "MOVING", "FIXED", "OUTPUT", "STATUS"}, rows)
	}

	if result.DryRun {
		p.Info("")
		p.Info(fmt.Sprintf("%s planned, nothing written.", countNoun(plan.JobCount(), "job", "jobs")))
		return
	}

	p.Info("")
	failed := result.Failed()
	for _, c := range failed {
		p.Error(fmt.Sprintf("%s chain stopped: %v", c.Side, c.Err))
		if len(c.Skipped) > 0 {
			p.Warning(fmt.Sprintf("%s chain skipped %s", c.Side, countNoun(len(c.Skipped), "job", "jobs")))
		}
	}
	if result.ManifestPath != "" {
		p.LabelValue("Manifest", result.ManifestPath)
	}
	if len(failed) == 0 {
		p.Success(fmt.Sprintf("Registered %s", countNoun(result.Completed(), "image", "images")))
	} else {
		p.Warning(fmt.Sprintf("Registered %d of %d images", result.Completed(), plan.JobCount()))
	}
}

// jobStatus reports what happened to job. A nil chain result means the job
// was only planned.
func jobStatus(job planner.Job, c *engine.ChainResult) string {
	switch {
	case c == nil:
		return statusPlanned
	case job.Step < len(c.Completed):
		return string(manifest.StatusCompleted)
	case c.Failed != nil && c.Failed.Step == job.Step:
		return string(manifest.StatusFailed)
	default:
		return string(manifest.StatusSkipped)
	}
}

// runJSON is the --json output of register.
type runJSON struct {
	RunID     string      `json:"runId,omitempty"`
	DryRun    bool        `json:"dryRun"`
	OutputDir string      `json:"outputDir"`
	Created   bool        `json:"created"`
	Fixed     imageJSON   `json:"fixed"`
	Manifest  string      `json:"manifest,omitempty"`
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
	Chains    []chainJSON `json:"chains"`
	Error     string      `json:"error,omitempty"`
}

type imageJSON struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

type chainJSON struct {
	Side  string    `json:"side"`
	Jobs  []jobJSON `json:"jobs"`
	Error string    `json:"error,omitempty"`
}

type jobJSON struct {
	Step   int    `json:"step"`
	Fixed  string `json:"fixed"`
	Moving string `json:"moving"`
	Output string `json:"output"`
	Status string `json:"status"`
}

func newRunJSON(result *engine.RunResult, runErr error) runJSON {
	plan := result.Plan
	out := runJSON{
		RunID:     result.RunID,
		DryRun:    result.DryRun,
		OutputDir: result.OutputDir,
		Created:   result.Created,
		Fixed:     imageJSON{Index: plan.Fixed.Index, Path: plan.Fixed.Path},
		Manifest:  result.ManifestPath,
		Completed: result.Completed(),
		Total:     plan.JobCount(),
		Error:     errorString(runErr),
	}

	for i, chain := range plan.Chains() {
		var chainResult *engine.ChainResult
		if i < len(result.Chains) {
			chainResult = &result.Chains[i]
		}

		cj := chainJSON{Side: string(chain.Side), Jobs: []jobJSON{}}
		if chainResult != nil {
			cj.Error = errorString(chainResult.Err)
		}
		for _, job := range chain.Jobs {
			cj.Jobs = append(cj.Jobs, jobJSON{
				Step:   job.Step,
				Fixed:  job.Fixed.Path,
				Moving: job.Moving.Path,
				Output: job.Output,
				Status: jobStatus(job, chainResult),
			})
		}
		out.Chains = append(out.Chains, cj)
	}
	return out
}
