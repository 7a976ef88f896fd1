package histogram

import (
	"gonum.org/v1/gonum/mat"

	"github.com/corrkit/corrkit/internal/binning"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

// BinPair is one occupied (raBin, decBin) cell.
type BinPair struct {
	RA  int
	Dec int
}

// Mask is the angular occupancy mask over the (raBin, decBin) grid. Occupied
// holds the true cells in ascending row-major (raBin, decBin) order; that
// ordering is the single source of truth for row alignment between the
// masked angular table and the joint matrix.
type Mask struct {
	RABins  int
	DecBins int
	Cells   []bool // row-major, indexed by binning.Unravel
	Occupied []BinPair
}

// BuildMask combines the random and observed angular histograms into an
// occupancy mask: a cell is occupied when either histogram is strictly
// positive there.
func BuildMask(histR, histD *mat.Dense) (*Mask, error) {
	rR, cR := histR.Dims()
	rD, cD := histD.Dims()
	if rR != rD || cR != cD {
		return nil, cerrors.Newf(cerrors.ErrShapeMismatch, "", "",
			"angular histograms differ in shape: (%d,%d) vs (%d,%d)", rR, cR, rD, cD)
	}
	m := &Mask{
		RABins:  rR,
		DecBins: cR,
		Cells:   make([]bool, rR*cR),
	}
	for ra := 0; ra < rR; ra++ {
		for dec := 0; dec < cR; dec++ {
			if histR.At(ra, dec) > 0 || histD.At(ra, dec) > 0 {
				m.Cells[binning.Unravel(ra, dec, cR)] = true
				m.Occupied = append(m.Occupied, BinPair{RA: ra, Dec: dec})
			}
		}
	}
	return m, nil
}

// Rows returns the unraveled row keys of the occupied cells, in mask order.
func (m *Mask) Rows() []int {
	rows := make([]int, len(m.Occupied))
	for i, p := range m.Occupied {
		rows[i] = binning.Unravel(p.RA, p.Dec, m.DecBins)
	}
	return rows
}
