// Package binning implements the shared bin arithmetic of the pipeline:
// edge validation, bin centers, value-to-bin index mapping, the unraveled
// angular row key, and compact column widths for serialization.
//
// The unraveled key is deliberately the only encoding of an (RA, Dec) bin
// pair into a row index; the occupancy mask and the joint accumulator both
// go through Unravel so their row orders always coincide.
package binning

import (
	"fmt"
	"math"
	"sort"

	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

// ValidateEdges checks that edges form a usable binning: at least two values,
// all finite, strictly increasing.
func ValidateEdges(edges []float64) error {
	if len(edges) < 2 {
		return cerrors.Newf(cerrors.ErrInvalidBinEdges, "", "",
			"need at least 2 edges, got %d", len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return cerrors.Newf(cerrors.ErrInvalidBinEdges, "", "",
				"edge %d is not finite (%g)", i, e)
		}
		if i > 0 && e <= edges[i-1] {
			return cerrors.Newf(cerrors.ErrInvalidBinEdges, "", "",
				"edges not strictly increasing at %d: %g <= %g", i, e, edges[i-1])
		}
	}
	return nil
}

// Centers returns the midpoint of each bin, length len(edges)-1.
func Centers(edges []float64) ([]float64, error) {
	if err := ValidateEdges(edges); err != nil {
		return nil, err
	}
	centers := make([]float64, len(edges)-1)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}
	return centers, nil
}

// ToBinIndex maps each value to its bin under the rule
// edges[i] <= v < edges[i+1], with the final bin closed on both ends.
// Any value outside [edges[0], edges[len-1]], or NaN, is an error; callers
// apply the range policy (exclusion) before indexing.
func ToBinIndex(values, edges []float64) ([]int, error) {
	if err := ValidateEdges(edges); err != nil {
		return nil, err
	}
	lo, hi := edges[0], edges[len(edges)-1]
	last := len(edges) - 2
	idx := make([]int, len(values))
	for k, v := range values {
		if math.IsNaN(v) || v < lo || v > hi {
			return nil, cerrors.Newf(cerrors.ErrOutOfRange, "", "",
				"value %g at row %d outside [%g, %g]", v, k, lo, hi)
		}
		// SearchFloat64s returns the smallest i with edges[i] >= v, so an
		// exact edge hit lands in the bin it opens and anything strictly
		// inside a bin lands one below the insertion point.
		i := sort.SearchFloat64s(edges, v)
		switch {
		case i <= last && edges[i] == v:
			idx[k] = i
		case i > last && edges[len(edges)-1] == v:
			idx[k] = last
		default:
			idx[k] = i - 1
		}
	}
	return idx, nil
}

// Unravel encodes an (raBin, decBin) pair as a single row key,
// decBins*raBin + decBin.
func Unravel(raBin, decBin, decBins int) int {
	return decBins*raBin + decBin
}

// UnravelAll encodes aligned raBins/decBins index slices in one pass.
func UnravelAll(raBins, decBins []int, numDec int) ([]int, error) {
	if len(raBins) != len(decBins) {
		return nil, cerrors.Newf(cerrors.ErrShapeMismatch, "", "",
			"ra and dec index lengths differ: %d vs %d", len(raBins), len(decBins))
	}
	out := make([]int, len(raBins))
	for k := range raBins {
		out[k] = Unravel(raBins[k], decBins[k], numDec)
	}
	return out, nil
}

// String renders an edge sequence compactly for error messages and logs.
func String(edges []float64) string {
	if len(edges) <= 4 {
		return fmt.Sprintf("%v", edges)
	}
	return fmt.Sprintf("[%g %g ... %g] (%d edges)",
		edges[0], edges[1], edges[len(edges)-1], len(edges))
}
