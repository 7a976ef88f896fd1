// Package histogram builds the weighted 1-D and 2-D histograms of the
// pipeline and derives the angular occupancy mask shared by the masked
// angular table and the joint matrix.
package histogram

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/corrkit/corrkit/internal/binning"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

// Build1D accumulates a probability histogram over values. Weights are
// normalized by their sum before accumulation, so the result sums to 1
// up to floating-point rounding.
func Build1D(values, weights, edges []float64) ([]float64, error) {
	if len(values) != len(weights) {
		return nil, cerrors.Newf(cerrors.ErrShapeMismatch, "", "",
			"values and weights lengths differ: %d vs %d", len(values), len(weights))
	}
	sum := floats.Sum(weights)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, cerrors.Newf(cerrors.ErrDegenerateWeights, "", "",
			"weight sum %g is not a positive finite number", sum)
	}
	idx, err := binning.ToBinIndex(values, edges)
	if err != nil {
		return nil, err
	}
	hist := make([]float64, len(edges)-1)
	for k, i := range idx {
		hist[i] += weights[k] / sum
	}
	return hist, nil
}
