// Package benchmark contains Go benchmarks for the histogram builders, the
// sparse joint accumulator, and the full preprocessing engine, measuring
// throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/corrkit/corrkit/internal/binning"
	"github.com/corrkit/corrkit/internal/catalog"
	"github.com/corrkit/corrkit/internal/histogram"
	"github.com/corrkit/corrkit/internal/joint"
	"github.com/corrkit/corrkit/internal/output"
	"github.com/corrkit/corrkit/internal/preprocess"
)

func uniformEdges(lo, hi float64, bins int) []float64 {
	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	return edges
}

func syntheticCatalog(n int, seed int64) *catalog.Catalog {
	rng := rand.New(rand.NewSource(seed))
	c := &catalog.Catalog{
		RA:        make([]float64, n),
		Dec:       make([]float64, n),
		Z:         make([]float64, n),
		Weight:    make([]float64, n),
		WeightZ:   make([]float64, n),
		WeightNoZ: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		c.RA[i] = 108 + 156*rng.Float64()
		c.Dec[i] = -4 + 61*rng.Float64()
		c.Z[i] = 0.43 + 0.27*rng.Float64()
		c.Weight[i] = 0.5 + rng.Float64()
		c.WeightZ[i] = 0.5 + rng.Float64()
		c.WeightNoZ[i] = 0.5 + rng.Float64()
	}
	return c
}

// BenchmarkBuild1D measures weighted 1-D histogram throughput at various
// catalog sizes.
func BenchmarkBuild1D(b *testing.B) {
	edges := uniformEdges(0.43, 0.70, 54)
	for _, n := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("rows_%d", n), func(b *testing.B) {
			c := syntheticCatalog(n, 1)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				hist, err := histogram.Build1D(c.Z, c.WeightZ, edges)
				if err != nil {
					b.Fatal(err)
				}
				_ = hist
			}
		})
	}
}

// BenchmarkBuild2D measures weighted 2-D histogram throughput over the full
// angular grid.
func BenchmarkBuild2D(b *testing.B) {
	raEdges := uniformEdges(108, 264, 312)
	decEdges := uniformEdges(-4, 57, 122)
	for _, n := range []int{10000, 100000} {
		b.Run(fmt.Sprintf("rows_%d", n), func(b *testing.B) {
			c := syntheticCatalog(n, 2)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				grid, err := histogram.Build2D(c.RA, c.Dec, c.Weight, raEdges, decEdges)
				if err != nil {
					b.Fatal(err)
				}
				_ = grid
			}
		})
	}
}

// BenchmarkAccumulate measures sparse joint accumulation throughput including
// the index computation that feeds it.
func BenchmarkAccumulate(b *testing.B) {
	raEdges := uniformEdges(108, 264, 312)
	decEdges := uniformEdges(-4, 57, 122)
	zEdges := uniformEdges(0.43, 0.70, 54)
	c := syntheticCatalog(100000, 3)

	iRA, err := binning.ToBinIndex(c.RA, raEdges)
	if err != nil {
		b.Fatal(err)
	}
	iDec, err := binning.ToBinIndex(c.Dec, decEdges)
	if err != nil {
		b.Fatal(err)
	}
	iZ, err := binning.ToBinIndex(c.Z, zEdges)
	if err != nil {
		b.Fatal(err)
	}
	iAng, err := binning.UnravelAll(iRA, iDec, len(decEdges)-1)
	if err != nil {
		b.Fatal(err)
	}
	numAng := (len(raEdges) - 1) * (len(decEdges) - 1)
	numZ := len(zEdges) - 1

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := joint.Accumulate(iAng, iZ, c.Weight, numAng, numZ)
		if err != nil {
			b.Fatal(err)
		}
		_ = s
	}
}

// BenchmarkEngineRun measures the end-to-end preprocessing pass at various
// catalog sizes.
func BenchmarkEngineRun(b *testing.B) {
	bins := preprocess.Binning{
		EdgesZ:   uniformEdges(0.43, 0.70, 54),
		EdgesRA:  uniformEdges(108, 264, 312),
		EdgesDec: uniformEdges(-4, 57, 122),
	}
	engine := preprocess.New(nil)
	for _, n := range []int{1000, 10000, 50000} {
		b.Run(fmt.Sprintf("rows_%d", n), func(b *testing.B) {
			random := syntheticCatalog(n, 4)
			observed := syntheticCatalog(n, 5)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				rs, err := engine.Run(context.Background(), bins, random, observed)
				if err != nil {
					b.Fatal(err)
				}
				_ = rs
			}
		})
	}
}

// BenchmarkWrite measures container serialization for a full result set.
func BenchmarkWrite(b *testing.B) {
	bins := preprocess.Binning{
		EdgesZ:   uniformEdges(0.43, 0.70, 54),
		EdgesRA:  uniformEdges(108, 264, 312),
		EdgesDec: uniformEdges(-4, 57, 122),
	}
	random := syntheticCatalog(20000, 6)
	observed := syntheticCatalog(20000, 7)
	rs, err := preprocess.New(nil).Run(context.Background(), bins, random, observed)
	if err != nil {
		b.Fatal(err)
	}
	dir := b.TempDir()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path := fmt.Sprintf("%s/bench-%d.ckt", dir, i)
		if _, err := output.Write(rs, path, false); err != nil {
			b.Fatal(err)
		}
	}
}
