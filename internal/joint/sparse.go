// Package joint builds the sparse angular-by-redshift accumulation for the
// observed catalog and densifies only the mask-selected rows.
//
// The angular domain (numRA x numDec rows) is typically far larger than the
// occupied-cell count, so the accumulation never materializes the full dense
// cube: rows allocate lazily on first hit, and only the masked slice is
// copied into a dense matrix at the end.
package joint

import (
	"gonum.org/v1/gonum/mat"

	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

// Sparse is a row-sparse accumulation matrix over shape (numAng, numZ).
// Only rows that received at least one entry hold a dense z-vector.
type Sparse struct {
	numAng int
	numZ   int
	rows   map[int][]float64
}

// NumZ returns the number of redshift columns.
func (s *Sparse) NumZ() int { return s.numZ }

// OccupiedRows returns how many angular rows received any weight.
func (s *Sparse) OccupiedRows() int { return len(s.rows) }

// At returns the accumulated weight at (row, z), zero for untouched rows.
func (s *Sparse) At(row, z int) float64 {
	if r, ok := s.rows[row]; ok {
		return r[z]
	}
	return 0
}

// Accumulate sums weights[k] into sparse cell (angIdx[k], zIdx[k]) for every
// entry k. Repeated cells accumulate; values never overwrite.
func Accumulate(angIdx, zIdx []int, weights []float64, numAng, numZ int) (*Sparse, error) {
	if len(angIdx) != len(zIdx) || len(angIdx) != len(weights) {
		return nil, cerrors.Newf(cerrors.ErrShapeMismatch, "", "",
			"index and weight lengths differ: ang=%d z=%d w=%d",
			len(angIdx), len(zIdx), len(weights))
	}
	if numAng <= 0 || numZ <= 0 {
		return nil, cerrors.Newf(cerrors.ErrInvalidBinEdges, "", "",
			"matrix shape (%d, %d) is not positive", numAng, numZ)
	}
	s := &Sparse{
		numAng: numAng,
		numZ:   numZ,
		rows:   make(map[int][]float64),
	}
	for k := range angIdx {
		a, z := angIdx[k], zIdx[k]
		if a < 0 || a >= numAng || z < 0 || z >= numZ {
			return nil, cerrors.Newf(cerrors.ErrOutOfRange, "", "",
				"entry %d indexes cell (%d, %d) outside shape (%d, %d)",
				k, a, z, numAng, numZ)
		}
		row, ok := s.rows[a]
		if !ok {
			row = make([]float64, numZ)
			s.rows[a] = row
		}
		row[z] += weights[k]
	}
	return s, nil
}

// SelectRows densifies the given rows, in order, into a (len(rows), numZ)
// matrix. The backing array is sized up front from the known row count.
// Rows absent from the sparse accumulation come out as zero vectors, which
// happens when an angular cell is occupied only in the random catalog.
func SelectRows(s *Sparse, rows []int) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, cerrors.New(cerrors.ErrCatalogEmpty, "", "",
			"no occupied angular bins to select")
	}
	for _, r := range rows {
		if r < 0 || r >= s.numAng {
			return nil, cerrors.Newf(cerrors.ErrOutOfRange, "", "",
				"selected row %d outside [0, %d)", r, s.numAng)
		}
	}
	data := make([]float64, len(rows)*s.numZ)
	for i, r := range rows {
		if row, ok := s.rows[r]; ok {
			copy(data[i*s.numZ:(i+1)*s.numZ], row)
		}
	}
	return mat.NewDense(len(rows), s.numZ, data), nil
}
