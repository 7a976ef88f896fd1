// Package e2e contains end-to-end tests that exercise the full preprocessing
// pipeline: CSV catalogs on disk → catalog loading → engine → container write
// → container read-back.
//
// Run with:
//
//	go test -v -tags=e2e ./test/e2e/...
package e2e

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corrkit/corrkit/internal/catalog"
	"github.com/corrkit/corrkit/internal/output"
	"github.com/corrkit/corrkit/internal/preprocess"
	"github.com/corrkit/corrkit/pkg/config"
)

// writeCatalogCSV writes a synthetic catalog file and returns its path.
func writeCatalogCSV(t *testing.T, dir, name string, rows int, seed int64, withNoZ bool) string {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	var sb strings.Builder
	if withNoZ {
		sb.WriteString("ra,dec,z,weight,weight_noz\n")
	} else {
		sb.WriteString("ra,dec,z,weight\n")
	}
	for i := 0; i < rows; i++ {
		ra := 110 + 40*rng.Float64()
		dec := 5 + 20*rng.Float64()
		z := 0.45 + 0.2*rng.Float64()
		w := 0.5 + rng.Float64()
		if withNoZ {
			fmt.Fprintf(&sb, "%.6f,%.6f,%.6f,%.6f,%.6f\n", ra, dec, z, w, 0.5+rng.Float64())
		} else {
			fmt.Fprintf(&sb, "%.6f,%.6f,%.6f,%.6f\n", ra, dec, z, w)
		}
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func uniformEdges(lo, hi float64, bins int) []float64 {
	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	return edges
}

// TestPipelineEndToEnd runs the whole pipeline over files on disk and checks
// the read-back container against the in-memory result.
func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	randomPath := writeCatalogCSV(t, dir, "random.csv", 2000, 11, true)
	observedPath := writeCatalogCSV(t, dir, "observed.csv", 500, 12, false)

	cols := config.ColumnMapConfig{WeightNoZ: "weight_noz"}
	random, err := catalog.LoadCSV(randomPath, cols)
	if err != nil {
		t.Fatalf("loading random catalog: %v", err)
	}
	observed, err := catalog.LoadCSV(observedPath, config.ColumnMapConfig{})
	if err != nil {
		t.Fatalf("loading observed catalog: %v", err)
	}

	bins := preprocess.Binning{
		EdgesZ:   uniformEdges(0.43, 0.70, 27),
		EdgesRA:  uniformEdges(108, 152, 44),
		EdgesDec: uniformEdges(4, 26, 22),
	}
	rs, err := preprocess.New(nil).Run(context.Background(), bins, random, observed)
	if err != nil {
		t.Fatalf("running engine: %v", err)
	}

	outPath := filepath.Join(dir, "result.ckt")
	n, err := output.Write(rs, outPath, false)
	if err != nil {
		t.Fatalf("writing container: %v", err)
	}
	if info, err := os.Stat(outPath); err != nil || info.Size() != n {
		t.Fatalf("expected %d bytes on disk, got stat %v err %v", n, info, err)
	}

	back, err := output.Read(outPath)
	if err != nil {
		t.Fatalf("reading container back: %v", err)
	}

	for _, name := range []string{
		preprocess.ArtifactCenterZ,
		preprocess.ArtifactCenterRA,
		preprocess.ArtifactCenterDec,
		preprocess.ArtifactPDFZ,
		preprocess.ArtifactAng,
		preprocess.ArtifactAngZD,
	} {
		if back.ByName(name) == nil {
			t.Errorf("artifact %q missing after read-back", name)
		}
	}

	// The probability column still sums to 1 after the float32 round trip.
	pdf := back.ByName(preprocess.ArtifactPDFZ)
	var sum float64
	for _, p := range pdf.Table.Column("probability").Floats {
		sum += p
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("expected pdfZ probabilities to sum to 1, got %g", sum)
	}

	// One joint matrix row per occupied angular bin.
	ang := back.ByName(preprocess.ArtifactAng)
	angzd := back.ByName(preprocess.ArtifactAngZD)
	rows, _ := angzd.Matrix.Dims()
	if rows != ang.Table.Rows() {
		t.Errorf("expected %d joint rows, got %d", ang.Table.Rows(), rows)
	}

	// Total joint weight matches the observed catalog's in-range weight. Every
	// observed object lands in an occupied angular bin, so masking loses none.
	clipped, _ := observed.ClipToEdges(bins.EdgesRA, bins.EdgesDec, bins.EdgesZ)
	var want float64
	for _, w := range clipped.Weight {
		want += w
	}
	var got float64
	r, c := angzd.Matrix.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			got += angzd.Matrix.At(i, j)
		}
	}
	if math.Abs(got-want) > 1e-6*math.Max(1, want) {
		t.Errorf("expected total joint weight %g, got %g", want, got)
	}

	if len(pdf.Provenance) == 0 || len(angzd.Provenance) == 0 {
		t.Error("expected provenance on pdfZ and angzD artifacts")
	}

	// A second write must refuse to clobber the existing container.
	if _, err := output.Write(rs, outPath, false); err == nil {
		t.Error("expected overwrite refusal for existing output")
	}
	if _, err := output.Write(rs, outPath, true); err != nil {
		t.Errorf("expected overwrite with flag to succeed: %v", err)
	}
}
