// Package preprocess runs the full preprocessing pipeline: histogram the
// catalogs, derive the angular occupancy mask, accumulate the joint
// angular-redshift matrix, and assemble everything into an ordered result
// set ready for serialization.
package preprocess

import (
	"gonum.org/v1/gonum/mat"

	"github.com/corrkit/corrkit/internal/binning"
)

// Fixed artifact names, also the order of assembly.
const (
	ArtifactCenterZ   = "centerZ"
	ArtifactCenterRA  = "centerRA"
	ArtifactCenterDec = "centerDec"
	ArtifactPDFZ      = "pdfZ"
	ArtifactAng       = "ang"
	ArtifactAngZD     = "angzD"
)

// Column is one semantically typed column of a result table. Type selects
// the serialized element width; integer-typed columns use Ints, float-typed
// columns use Floats.
type Column struct {
	Name   string
	Type   binning.ColumnType
	Ints   []int64
	Floats []float64
}

// Len returns the number of elements in the column.
func (c Column) Len() int {
	if c.Type == binning.Int16 || c.Type == binning.Int32 || c.Type == binning.Int64 {
		return len(c.Ints)
	}
	return len(c.Floats)
}

// Table is an ordered set of equal-length columns.
type Table struct {
	Columns []Column
}

// Rows returns the table's row count.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Artifact is one named output: either a table or a dense matrix, with
// free-form comments and provenance (source identifiers, attached but not
// interpreted here).
type Artifact struct {
	Name       string
	Table      *Table
	Matrix     *mat.Dense
	Comments   []string
	Provenance []string
}

// ResultSet is the ordered output of one preprocessing run. Consumers look
// artifacts up by name; the order is fixed and reproducible across runs.
type ResultSet struct {
	Artifacts []Artifact
}

// ByName returns the named artifact, or nil.
func (rs *ResultSet) ByName(name string) *Artifact {
	for i := range rs.Artifacts {
		if rs.Artifacts[i].Name == name {
			return &rs.Artifacts[i]
		}
	}
	return nil
}

func float64Column(name string, data []float64) Column {
	return Column{Name: name, Type: binning.Float64, Floats: data}
}

func float32Column(name string, data []float64) Column {
	return Column{Name: name, Type: binning.Float32, Floats: data}
}

func intColumn(name string, typ binning.ColumnType, data []int64) Column {
	return Column{Name: name, Type: typ, Ints: data}
}
