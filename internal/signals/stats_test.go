package signals

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		xs   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{5}, 5},
		{[]float64{1, 3}, 2},
		{[]float64{3, 1, 2}, 2},
		{[]float64{30, 29, 31, 300}, 30.5},
	}
	for _, tc := range cases {
		if got := median(tc.xs); got != tc.want {
			t.Errorf("median(%v) = %f, want %f", tc.xs, got, tc.want)
		}
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	median(xs)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Errorf("input mutated: %v", xs)
	}
}

func TestStddev(t *testing.T) {
	if got := stddev([]float64{7}); got != 0 {
		t.Errorf("single value stddev = %f, want 0", got)
	}
	if got := stddev([]float64{10, 10, 10}); got != 0 {
		t.Errorf("constant stddev = %f, want 0", got)
	}
	// Population stddev of {2, 4, 4, 4, 5, 5, 7, 9} is exactly 2.
	got := stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2) > 1e-12 {
		t.Errorf("stddev = %f, want 2", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	if got := coefficientOfVariation(nil); got != 0 {
		t.Errorf("empty cv = %f, want 0", got)
	}
	if got := coefficientOfVariation([]float64{5, 5, 5}); got != 0 {
		t.Errorf("constant cv = %f, want 0", got)
	}
	got := coefficientOfVariation([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-0.4) > 1e-12 {
		t.Errorf("cv = %f, want 0.4", got)
	}
}
