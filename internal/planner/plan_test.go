package planner

import (
	"errors"
	"reflect"
	"testing"
)

func mustSequence(t *testing.T, paths ...string) Sequence {
	t.Helper()
	seq, err := NewSequence(paths)
	if err != nil {
		t.Fatalf("NewSequence() error = %v", err)
	}
	return seq
}

// pairs renders a chain as (fixed, moving) stems for compact comparisons.
func pairs(c Chain) [][2]string {
	out := make([][2]string, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		out = append(out, [2]string{j.Fixed.Stem(), j.Moving.Stem()})
	}
	return out
}

func TestNewSequence(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := NewSequence(nil)
		if !errors.Is(err, ErrEmptySequence) {
			t.Errorf("expected ErrEmptySequence, got %v", err)
		}
	})

	t.Run("indices are contiguous", func(t *testing.T) {
		seq := mustSequence(t, "a.tif", "b.tif", "c.tif")
		for i, ref := range seq.Refs() {
			if ref.Index != i {
				t.Errorf("ref %d has index %d", i, ref.Index)
			}
		}
		if got := seq.Paths(); !reflect.DeepEqual(got, []string{"a.tif", "b.tif", "c.tif"}) {
			t.Errorf("Paths() = %v", got)
		}
	})

	t.Run("refs returns a copy", func(t *testing.T) {
		seq := mustSequence(t, "a.tif", "b.tif")
		refs := seq.Refs()
		refs[0].Path = "changed"
		if seq.At(0).Path != "a.tif" {
			t.Errorf("sequence was mutated through Refs(): %q", seq.At(0).Path)
		}
	})
}

func TestImageRef_Stem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/slice_001.TIF", "slice_001"},
		{"relative/img.tar.gz", "img.tar"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := (ImageRef{Path: tt.path}).Stem(); got != tt.want {
				t.Errorf("Stem() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultFixedIndex(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 0},
		{2, 1},
		{7, 3},
		{8, 4},
	}

	for _, tt := range tests {
		if got := DefaultFixedIndex(tt.n); got != tt.want {
			t.Errorf("DefaultFixedIndex(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestResolveFixedIndex(t *testing.T) {
	explicit := 1
	if got := ResolveFixedIndex(7, &explicit); got != 1 {
		t.Errorf("explicit index: got %d, want 1", got)
	}
	if got := ResolveFixedIndex(7, nil); got != 3 {
		t.Errorf("default index: got %d, want 3", got)
	}
}

func TestBuildPlan_FiveImages(t *testing.T) {
	seq := mustSequence(t, "A.tif", "B.tif", "C.tif", "D.tif", "E.tif")

	plan, err := BuildPlan(seq, 2)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	if plan.Fixed.Stem() != "C" {
		t.Errorf("fixed = %q, want C", plan.Fixed.Stem())
	}

	wantLeft := [][2]string{{"C", "B"}, {"B", "A"}}
	if got := pairs(plan.Left); !reflect.DeepEqual(got, wantLeft) {
		t.Errorf("left chain = %v, want %v", got, wantLeft)
	}

	wantRight := [][2]string{{"C", "D"}, {"D", "E"}}
	if got := pairs(plan.Right); !reflect.DeepEqual(got, wantRight) {
		t.Errorf("right chain = %v, want %v", got, wantRight)
	}

	if plan.JobCount() != 4 {
		t.Errorf("JobCount() = %d, want 4", plan.JobCount())
	}
}

func TestBuildPlan_JobFields(t *testing.T) {
	seq := mustSequence(t, "in/A.tif", "in/B.tif", "in/C.tif")

	plan, err := BuildPlan(seq, 1)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	left := plan.Left.Jobs[0]
	if left.Side != SideLeft || left.Step != 0 {
		t.Errorf("left job side/step = %s/%d", left.Side, left.Step)
	}
	if left.Output != "left/000_A" {
		t.Errorf("left output = %q, want %q", left.Output, "left/000_A")
	}

	right := plan.Right.Jobs[0]
	if right.Side != SideRight || right.Output != "right/002_C" {
		t.Errorf("right job = %+v", right)
	}
}

func TestBuildPlan_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		fixed     int
		wantLeft  int
		wantRight int
	}{
		{name: "single image", n: 1, fixed: 0, wantLeft: 0, wantRight: 0},
		{name: "fixed at start", n: 4, fixed: 0, wantLeft: 0, wantRight: 3},
		{name: "fixed at end", n: 4, fixed: 3, wantLeft: 3, wantRight: 0},
		{name: "two images default", n: 2, fixed: 1, wantLeft: 1, wantRight: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := make([]string, tt.n)
			for i := range paths {
				paths[i] = string(rune('a'+i)) + ".tif"
			}
			plan, err := BuildPlan(mustSequence(t, paths...), tt.fixed)
			if err != nil {
				t.Fatalf("BuildPlan() error = %v", err)
			}
			if plan.Left.Len() != tt.wantLeft {
				t.Errorf("left len = %d, want %d", plan.Left.Len(), tt.wantLeft)
			}
			if plan.Right.Len() != tt.wantRight {
				t.Errorf("right len = %d, want %d", plan.Right.Len(), tt.wantRight)
			}
			if plan.Left.Side != SideLeft || plan.Right.Side != SideRight {
				t.Errorf("chain sides = %s/%s", plan.Left.Side, plan.Right.Side)
			}
		})
	}
}

func TestBuildPlan_InvalidReference(t *testing.T) {
	seq := mustSequence(t, "a.tif", "b.tif", "c.tif")

	for _, idx := range []int{-1, 3, 100} {
		plan, err := BuildPlan(seq, idx)
		if plan != nil {
			t.Errorf("index %d: expected no plan, got %+v", idx, plan)
		}
		var refErr *InvalidReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("index %d: expected InvalidReferenceError, got %v", idx, err)
		}
		if refErr.Index != idx || refErr.Length != 3 {
			t.Errorf("index %d: error fields = %+v", idx, refErr)
		}
	}
}

func TestBuildPlan_ZeroSequence(t *testing.T) {
	_, err := BuildPlan(Sequence{}, 0)
	if !errors.Is(err, ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence, got %v", err)
	}
}
