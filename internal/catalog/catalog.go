// Package catalog holds the columnar sky-catalog model and its loaders.
// A catalog exposes columnar access to positions (ra, dec, z) and the three
// weight fields the pipeline consumes: the full weight, the
// normalized-by-z weight, and the z-independent weight.
package catalog

import (
	"math"

	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

// Catalog is an immutable columnar view of one input catalog.
type Catalog struct {
	RA        []float64
	Dec       []float64
	Z         []float64
	Weight    []float64
	WeightZ   []float64
	WeightNoZ []float64

	// Sources identifies the input files or tables this catalog came from,
	// attached to result artifacts as provenance.
	Sources []string
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.RA) }

// Validate checks that all columns share one length and the catalog is not
// empty.
func (c *Catalog) Validate() error {
	n := len(c.RA)
	if n == 0 {
		return cerrors.New(cerrors.ErrCatalogEmpty, "", "", "no entries")
	}
	cols := map[string]int{
		"dec":        len(c.Dec),
		"z":          len(c.Z),
		"weight":     len(c.Weight),
		"weight_z":   len(c.WeightZ),
		"weight_noz": len(c.WeightNoZ),
	}
	for name, l := range cols {
		if l != n {
			return cerrors.Newf(cerrors.ErrShapeMismatch, "", "",
				"column %s has %d entries, ra has %d", name, l, n)
		}
	}
	return nil
}

// ClipReport records how many entries the range policy dropped, per axis.
// An entry failing several axes counts once, against the first failing axis
// in (ra, dec, z) order.
type ClipReport struct {
	Kept       int
	DroppedRA  int
	DroppedDec int
	DroppedZ   int
}

// Dropped returns the total number of excluded entries.
func (r ClipReport) Dropped() int {
	return r.DroppedRA + r.DroppedDec + r.DroppedZ
}

// ClipToEdges applies the out-of-range policy: entries whose position falls
// outside any configured edge range (or is NaN) are excluded before binning.
// It returns a new catalog; the receiver is not modified.
func (c *Catalog) ClipToEdges(raEdges, decEdges, zEdges []float64) (*Catalog, ClipReport) {
	inRange := func(v float64, edges []float64) bool {
		return !math.IsNaN(v) && v >= edges[0] && v <= edges[len(edges)-1]
	}
	out := &Catalog{Sources: c.Sources}
	var report ClipReport
	for k := 0; k < c.Len(); k++ {
		switch {
		case !inRange(c.RA[k], raEdges):
			report.DroppedRA++
			continue
		case !inRange(c.Dec[k], decEdges):
			report.DroppedDec++
			continue
		case !inRange(c.Z[k], zEdges):
			report.DroppedZ++
			continue
		}
		out.RA = append(out.RA, c.RA[k])
		out.Dec = append(out.Dec, c.Dec[k])
		out.Z = append(out.Z, c.Z[k])
		out.Weight = append(out.Weight, c.Weight[k])
		out.WeightZ = append(out.WeightZ, c.WeightZ[k])
		out.WeightNoZ = append(out.WeightNoZ, c.WeightNoZ[k])
	}
	report.Kept = out.Len()
	return out, report
}
