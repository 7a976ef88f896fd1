package joint

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/corrkit/corrkit/internal/binning"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

func TestAccumulateRepeatedCells(t *testing.T) {
	// Three entries into the same cell must sum, not overwrite.
	s, err := Accumulate(
		[]int{4, 4, 4, 2},
		[]int{1, 1, 1, 0},
		[]float64{1, 2, 3, 5},
		10, 3,
	)
	if err != nil {
		t.Fatalf("Accumulate returned error: %v", err)
	}
	if got := s.At(4, 1); got != 6 {
		t.Errorf("cell (4,1) = %g, want 6", got)
	}
	if got := s.At(2, 0); got != 5 {
		t.Errorf("cell (2,0) = %g, want 5", got)
	}
	if s.OccupiedRows() != 2 {
		t.Errorf("occupied rows = %d, want 2", s.OccupiedRows())
	}
}

func TestAccumulateRejectsBadInput(t *testing.T) {
	if _, err := Accumulate([]int{0}, []int{0, 1}, []float64{1}, 2, 2); !errors.Is(err, cerrors.ErrShapeMismatch) {
		t.Errorf("length mismatch: expected ErrShapeMismatch, got %v", err)
	}
	if _, err := Accumulate([]int{5}, []int{0}, []float64{1}, 2, 2); !errors.Is(err, cerrors.ErrOutOfRange) {
		t.Errorf("row out of shape: expected ErrOutOfRange, got %v", err)
	}
	if _, err := Accumulate([]int{0}, []int{2}, []float64{1}, 2, 2); !errors.Is(err, cerrors.ErrOutOfRange) {
		t.Errorf("column out of shape: expected ErrOutOfRange, got %v", err)
	}
}

func TestSelectRowsZeroFillsMissing(t *testing.T) {
	s, err := Accumulate([]int{3}, []int{1}, []float64{2.5}, 6, 2)
	if err != nil {
		t.Fatalf("Accumulate returned error: %v", err)
	}
	// Row 1 was never touched (occupied only in the random catalog), row 3 was.
	dense, err := SelectRows(s, []int{1, 3})
	if err != nil {
		t.Fatalf("SelectRows returned error: %v", err)
	}
	r, c := dense.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("dense shape = (%d,%d), want (2,2)", r, c)
	}
	if dense.At(0, 0) != 0 || dense.At(0, 1) != 0 {
		t.Errorf("untouched row not zero: [%g %g]", dense.At(0, 0), dense.At(0, 1))
	}
	if dense.At(1, 1) != 2.5 {
		t.Errorf("cell (1,1) = %g, want 2.5", dense.At(1, 1))
	}
}

func TestSelectRowsEmptySelection(t *testing.T) {
	s, _ := Accumulate(nil, nil, nil, 4, 2)
	if _, err := SelectRows(s, nil); !errors.Is(err, cerrors.ErrCatalogEmpty) {
		t.Fatalf("expected ErrCatalogEmpty, got %v", err)
	}
}

// TestSparseDenseEquivalence checks the core correctness property: sparse
// accumulation followed by masked row selection must equal a directly
// computed dense 3-D histogram filtered by the same mask.
func TestSparseDenseEquivalence(t *testing.T) {
	const (
		numRA  = 7
		numDec = 5
		numZ   = 4
		n      = 500
	)
	rng := rand.New(rand.NewSource(42))

	raIdx := make([]int, n)
	decIdx := make([]int, n)
	zIdx := make([]int, n)
	weights := make([]float64, n)
	for k := 0; k < n; k++ {
		// Concentrate on few cells so repeats are common.
		raIdx[k] = rng.Intn(3)
		decIdx[k] = rng.Intn(2)
		zIdx[k] = rng.Intn(numZ)
		weights[k] = rng.Float64()
	}

	angIdx, err := binning.UnravelAll(raIdx, decIdx, numDec)
	if err != nil {
		t.Fatalf("UnravelAll returned error: %v", err)
	}
	s, err := Accumulate(angIdx, zIdx, weights, numRA*numDec, numZ)
	if err != nil {
		t.Fatalf("Accumulate returned error: %v", err)
	}

	// Direct dense 3-D accumulation.
	dense3d := make([][][]float64, numRA)
	for ra := range dense3d {
		dense3d[ra] = make([][]float64, numDec)
		for dec := range dense3d[ra] {
			dense3d[ra][dec] = make([]float64, numZ)
		}
	}
	for k := 0; k < n; k++ {
		dense3d[raIdx[k]][decIdx[k]][zIdx[k]] += weights[k]
	}

	// Mask: every cell with any weight, plus one untouched cell.
	type pair struct{ ra, dec int }
	var order []pair
	for ra := 0; ra < numRA; ra++ {
		for dec := 0; dec < numDec; dec++ {
			touched := false
			for z := 0; z < numZ; z++ {
				if dense3d[ra][dec][z] != 0 {
					touched = true
					break
				}
			}
			if touched || (ra == numRA-1 && dec == numDec-1) {
				order = append(order, pair{ra, dec})
			}
		}
	}
	rows := make([]int, len(order))
	for i, p := range order {
		rows[i] = binning.Unravel(p.ra, p.dec, numDec)
	}

	selected, err := SelectRows(s, rows)
	if err != nil {
		t.Fatalf("SelectRows returned error: %v", err)
	}
	for i, p := range order {
		for z := 0; z < numZ; z++ {
			want := dense3d[p.ra][p.dec][z]
			got := selected.At(i, z)
			if math.Abs(got-want) > 1e-12 {
				t.Fatalf("cell (ra=%d, dec=%d, z=%d): sparse %g vs dense %g",
					p.ra, p.dec, z, got, want)
			}
		}
	}
}
