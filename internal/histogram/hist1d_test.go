package histogram

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

const sumTolerance = 1e-9

func TestBuild1DSumsToOne(t *testing.T) {
	values := []float64{0.1, 0.4, 0.9, 1.2, 1.7, 1.99}
	weights := []float64{1, 2, 0.5, 3, 1.5, 0.25}
	edges := []float64{0, 0.5, 1, 1.5, 2}

	hist, err := Build1D(values, weights, edges)
	if err != nil {
		t.Fatalf("Build1D returned error: %v", err)
	}
	if len(hist) != len(edges)-1 {
		t.Fatalf("expected %d bins, got %d", len(edges)-1, len(hist))
	}
	if total := floats.Sum(hist); math.Abs(total-1) > sumTolerance {
		t.Errorf("histogram sums to %g, want 1 within %g", total, sumTolerance)
	}
}

func TestBuild1DPlacement(t *testing.T) {
	// Two equal weights in the first bin, one double weight in the last.
	hist, err := Build1D(
		[]float64{0.1, 0.2, 1.5},
		[]float64{1, 1, 2},
		[]float64{0, 1, 2},
	)
	if err != nil {
		t.Fatalf("Build1D returned error: %v", err)
	}
	if math.Abs(hist[0]-0.5) > sumTolerance || math.Abs(hist[1]-0.5) > sumTolerance {
		t.Errorf("got bins %v, want [0.5 0.5]", hist)
	}
}

func TestBuild1DDegenerateWeights(t *testing.T) {
	edges := []float64{0, 1}
	cases := []struct {
		name    string
		weights []float64
	}{
		{"zero sum", []float64{0, 0}},
		{"negative sum", []float64{1, -2}},
		{"nan", []float64{1, math.NaN()}},
		{"inf", []float64{1, math.Inf(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build1D([]float64{0.5, 0.5}, tc.weights, edges)
			if !errors.Is(err, cerrors.ErrDegenerateWeights) {
				t.Fatalf("expected ErrDegenerateWeights, got %v", err)
			}
		})
	}
}

func TestBuild1DShapeMismatch(t *testing.T) {
	_, err := Build1D([]float64{0.5}, []float64{1, 2}, []float64{0, 1})
	if !errors.Is(err, cerrors.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
