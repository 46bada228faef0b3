package planner

import (
	"fmt"
	"path"
)

// Side names one of the two chains of a plan.
type Side string

// Chain sides
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// InvalidReferenceError reports a fixed index outside the sequence.
type InvalidReferenceError struct {
	Index  int
	Length int
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("fixed image index %d out of range [0, %d)", e.Index, e.Length)
}

// Job is a single pairwise registration: Moving is registered against Fixed.
type Job struct {
	// Side is the chain this job belongs to
	Side Side

	// Step is the position of the job in its chain (0 = next to the fixed image)
	Step int

	// Fixed is the anchor image of this job
	Fixed ImageRef

	// Moving is the image being registered
	Moving ImageRef

	// Output is the slash-separated artifact location relative to the run output directory
	Output string
}

// Chain is an ordered list of jobs where job i+1 depends on job i.
type Chain struct {
	Side Side
	Jobs []Job
}

// Len returns the number of jobs in the chain.
func (c Chain) Len() int {
	return len(c.Jobs)
}

// IsEmpty returns true if the chain has no jobs.
func (c Chain) IsEmpty() bool {
	return len(c.Jobs) == 0
}

// Plan holds both chains computed around a fixed reference.
type Plan struct {
	Sequence Sequence
	Fixed    ImageRef
	Left     Chain
	Right    Chain
}

// JobCount returns the total number of jobs in both chains.
func (p *Plan) JobCount() int {
	return p.Left.Len() + p.Right.Len()
}

// Chains returns the left and right chain in that order.
func (p *Plan) Chains() []Chain {
	return []Chain{p.Left, p.Right}
}

// BuildPlan splits seq around fixedIndex into a left and a right chain.
//
// Anchors advance along the untransformed sequence: job k on the left side
// registers image[fixed-k-1] against image[fixed-k], so transforms are
// accumulated instead of images being resampled at every step.
func BuildPlan(seq Sequence, fixedIndex int) (*Plan, error) {
	n := seq.Len()
	if n == 0 {
		return nil, ErrEmptySequence
	}
	if fixedIndex < 0 || fixedIndex >= n {
		return nil, &InvalidReferenceError{Index: fixedIndex, Length: n}
	}

	plan := &Plan{
		Sequence: seq,
		Fixed:    seq.At(fixedIndex),
		Left:     Chain{Side: SideLeft, Jobs: make([]Job, 0, fixedIndex)},
		Right:    Chain{Side: SideRight, Jobs: make([]Job, 0, n-1-fixedIndex)},
	}

	for anchor := fixedIndex; anchor > 0; anchor-- {
		plan.Left.Jobs = append(plan.Left.Jobs, newJob(SideLeft, fixedIndex-anchor, seq.At(anchor), seq.At(anchor-1)))
	}
	for anchor := fixedIndex; anchor < n-1; anchor++ {
		plan.Right.Jobs = append(plan.Right.Jobs, newJob(SideRight, anchor-fixedIndex, seq.At(anchor), seq.At(anchor+1)))
	}

	return plan, nil
}

func newJob(side Side, step int, fixed, moving ImageRef) Job {
	return Job{
		Side:   side,
		Step:   step,
		Fixed:  fixed,
		Moving: moving,
		Output: path.Join(string(side), fmt.Sprintf("%03d_%s", moving.Index, moving.Stem())),
	}
}
