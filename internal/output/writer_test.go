package output

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/corrkit/corrkit/internal/binning"
	"github.com/corrkit/corrkit/internal/preprocess"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
)

func sampleResultSet() *preprocess.ResultSet {
	return &preprocess.ResultSet{Artifacts: []preprocess.Artifact{
		{
			Name: "centerZ",
			Table: &preprocess.Table{Columns: []preprocess.Column{
				{Name: "binCenter", Type: binning.Float64, Floats: []float64{0.5, 1.5}},
			}},
		},
		{
			Name: "ang",
			Table: &preprocess.Table{Columns: []preprocess.Column{
				{Name: "binRA", Type: binning.Int16, Ints: []int64{0, 3}},
				{Name: "binDec", Type: binning.Int16, Ints: []int64{1, 2}},
				{Name: "countD", Type: binning.Float32, Floats: []float64{2, 0.5}},
			}},
			Comments:   []string{"test table"},
			Provenance: []string{"a.csv", "b.csv"},
		},
		{
			Name:       "angzD",
			Matrix:     mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}),
			Provenance: []string{"b.csv"},
		},
	}}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ckt")
	n, err := Write(sampleResultSet(), path, false)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if info.Size() != n {
		t.Errorf("Write reported %d bytes, file has %d", n, info.Size())
	}

	rs, err := Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	want := sampleResultSet()
	if len(rs.Artifacts) != len(want.Artifacts) {
		t.Fatalf("got %d artifacts, want %d", len(rs.Artifacts), len(want.Artifacts))
	}
	for i := range want.Artifacts {
		a, b := rs.Artifacts[i], want.Artifacts[i]
		if a.Name != b.Name {
			t.Errorf("artifact %d name = %s, want %s", i, a.Name, b.Name)
		}
		if !reflect.DeepEqual(a.Provenance, b.Provenance) {
			t.Errorf("artifact %s provenance = %v, want %v", a.Name, a.Provenance, b.Provenance)
		}
		if b.Table != nil && !reflect.DeepEqual(a.Table, b.Table) {
			t.Errorf("artifact %s table does not round-trip", a.Name)
		}
		if b.Matrix != nil && !mat.Equal(a.Matrix, b.Matrix) {
			t.Errorf("artifact %s matrix does not round-trip", a.Name)
		}
	}
}

func TestWriteRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ckt")
	if _, err := Write(sampleResultSet(), path, false); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if _, err := Write(sampleResultSet(), path, false); !errors.Is(err, cerrors.ErrOutputExists) {
		t.Fatalf("expected ErrOutputExists, got %v", err)
	}
	if _, err := Write(sampleResultSet(), path, true); err != nil {
		t.Fatalf("overwrite write failed: %v", err)
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ckt")
	if _, err := Write(sampleResultSet(), path, false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[headerSize+4] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected checksum error for corrupted container")
	}
}
