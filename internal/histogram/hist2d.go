package histogram

import (
	"gonum.org/v1/gonum/mat"

	"github.com/corrkit/corrkit/internal/binning"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

// Build2D accumulates a raw (unnormalized) weighted 2-D histogram over
// (x, y) into a dense grid of shape (len(xEdges)-1, len(yEdges)-1). Both
// catalogs' angular histograms are built with this one function and the same
// edge pair, so their grids always share shape.
func Build2D(xs, ys, weights, xEdges, yEdges []float64) (*mat.Dense, error) {
	if len(xs) != len(ys) || len(xs) != len(weights) {
		return nil, cerrors.Newf(cerrors.ErrShapeMismatch, "", "",
			"column lengths differ: x=%d y=%d w=%d", len(xs), len(ys), len(weights))
	}
	ix, err := binning.ToBinIndex(xs, xEdges)
	if err != nil {
		return nil, err
	}
	iy, err := binning.ToBinIndex(ys, yEdges)
	if err != nil {
		return nil, err
	}
	grid := mat.NewDense(len(xEdges)-1, len(yEdges)-1, nil)
	for k := range ix {
		grid.Set(ix[k], iy[k], grid.At(ix[k], iy[k])+weights[k])
	}
	return grid, nil
}
