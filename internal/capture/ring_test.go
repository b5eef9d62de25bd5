package capture

import (
	"slices"
	"testing"
)

func TestLevelRing_PartialFill(t *testing.T) {
	t.Parallel()
	r := newLevelRing(4)
	r.push(0.1)
	r.push(0.2)

	if got := r.snapshot(); !slices.Equal(got, []float64{0.1, 0.2}) {
		t.Errorf("snapshot = %v, want [0.1 0.2]", got)
	}
}

func TestLevelRing_OverwritesOldest(t *testing.T) {
	t.Parallel()
	r := newLevelRing(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.push(v)
	}

	if got := r.snapshot(); !slices.Equal(got, []float64{3, 4, 5}) {
		t.Errorf("snapshot = %v, want [3 4 5]", got)
	}
}

func TestLevelRing_Empty(t *testing.T) {
	t.Parallel()
	r := newLevelRing(3)
	if got := r.snapshot(); got != nil {
		t.Errorf("snapshot of empty ring = %v, want nil", got)
	}
}

func TestLevelRing_Reset(t *testing.T) {
	t.Parallel()
	r := newLevelRing(3)
	r.push(1)
	r.reset()
	if got := r.snapshot(); got != nil {
		t.Errorf("snapshot after reset = %v, want nil", got)
	}
	r.push(2)
	if got := r.snapshot(); !slices.Equal(got, []float64{2}) {
		t.Errorf("snapshot = %v, want [2]", got)
	}
}
