package preprocess

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/corrkit/corrkit/internal/binning"
	"github.com/corrkit/corrkit/internal/catalog"
	"github.com/corrkit/corrkit/internal/histogram"
	"github.com/corrkit/corrkit/internal/joint"
	"github.com/corrkit/corrkit/pkg/config"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
	"github.com/corrkit/corrkit/pkg/logger"
	"github.com/corrkit/corrkit/pkg/metrics"
)

// Binning holds the resolved, validated edge sequences for the three axes.
// RA and Dec compose the angular grid applied to both catalogs.
type Binning struct {
	EdgesZ   []float64
	EdgesRA  []float64
	EdgesDec []float64
}

// ResolveBinning turns the axis configuration into explicit edges and
// validates them, naming the failing axis.
func ResolveBinning(cfg config.BinningConfig) (Binning, error) {
	var b Binning
	axes := []struct {
		name string
		cfg  config.AxisConfig
		out  *[]float64
	}{
		{"z", cfg.Z, &b.EdgesZ},
		{"ra", cfg.RA, &b.EdgesRA},
		{"dec", cfg.Dec, &b.EdgesDec},
	}
	for _, axis := range axes {
		edges, err := axis.cfg.Resolve()
		if err != nil {
			return Binning{}, cerrors.Newf(cerrors.ErrInvalidBinEdges, "", axis.name, "%v", err)
		}
		if err := binning.ValidateEdges(edges); err != nil {
			return Binning{}, cerrors.Wrap(err, "", axis.name)
		}
		*axis.out = edges
	}
	return b, nil
}

// Engine runs preprocessing over two catalog views. It holds no run state;
// a single Engine serves any number of runs.
type Engine struct {
	metrics *metrics.Metrics
}

// New creates an Engine. Metrics may be nil when instrumentation is not
// wanted (tests, one-shot CLI without a metrics server).
func New(m *metrics.Metrics) *Engine {
	return &Engine{metrics: m}
}

// Run computes the full result set from the random and observed catalogs.
// The four independent accumulation steps run concurrently; mask derivation
// and row selection follow once the angular histograms and the sparse joint
// matrix exist. All artifacts are deterministic for identical inputs.
func (e *Engine) Run(ctx context.Context, bins Binning, random, observed *catalog.Catalog) (*ResultSet, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "preprocess")

	rs, err := e.run(ctx, bins, random, observed, log)

	outcome := "ok"
	if err != nil {
		outcome = cerrors.Kind(err)
	}
	if e.metrics != nil {
		e.metrics.RunsTotal.WithLabelValues(outcome).Inc()
		e.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		log.Error("preprocessing run failed", "error", err, "outcome", outcome)
		return nil, err
	}
	log.Info("preprocessing run complete",
		"duration", time.Since(start).Round(time.Millisecond),
		"artifacts", len(rs.Artifacts),
	)
	return rs, nil
}

func (e *Engine) run(ctx context.Context, bins Binning, random, observed *catalog.Catalog, log *slog.Logger) (*ResultSet, error) {
	if err := random.Validate(); err != nil {
		return nil, cerrors.Wrap(err, "random", "")
	}
	if err := observed.Validate(); err != nil {
		return nil, cerrors.Wrap(err, "observed", "")
	}

	centerZ, err := binning.Centers(bins.EdgesZ)
	if err != nil {
		return nil, cerrors.Wrap(err, "", "z")
	}
	centerRA, err := binning.Centers(bins.EdgesRA)
	if err != nil {
		return nil, cerrors.Wrap(err, "", "ra")
	}
	centerDec, err := binning.Centers(bins.EdgesDec)
	if err != nil {
		return nil, cerrors.Wrap(err, "", "dec")
	}

	random = e.clip("random", random, bins, log)
	observed = e.clip("observed", observed, bins, log)
	if random.Len() == 0 {
		return nil, cerrors.New(cerrors.ErrCatalogEmpty, "random", "", "no entries inside the configured edges")
	}
	if observed.Len() == 0 {
		return nil, cerrors.New(cerrors.ErrCatalogEmpty, "observed", "", "no entries inside the configured edges")
	}
	if e.metrics != nil {
		e.metrics.CatalogRows.WithLabelValues("random").Set(float64(random.Len()))
		e.metrics.CatalogRows.WithLabelValues("observed").Set(float64(observed.Len()))
	}

	numDec := len(bins.EdgesDec) - 1
	numRA := len(bins.EdgesRA) - 1
	numZ := len(bins.EdgesZ) - 1

	// The four accumulation passes are independent given the clipped
	// catalogs; none mutate shared state.
	var (
		pdfz   []float64
		angR   *mat.Dense
		angD   *mat.Dense
		sparse *joint.Sparse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer e.step("pdf_z")()
		var err error
		pdfz, err = histogram.Build1D(random.Z, random.WeightZ, bins.EdgesZ)
		return cerrors.Wrap(err, "random", "z")
	})
	g.Go(func() error {
		defer e.step("ang_random")()
		var err error
		angR, err = histogram.Build2D(random.RA, random.Dec, random.WeightNoZ, bins.EdgesRA, bins.EdgesDec)
		return cerrors.Wrap(err, "random", "ra,dec")
	})
	g.Go(func() error {
		defer e.step("ang_observed")()
		var err error
		angD, err = histogram.Build2D(observed.RA, observed.Dec, observed.Weight, bins.EdgesRA, bins.EdgesDec)
		return cerrors.Wrap(err, "observed", "ra,dec")
	})
	g.Go(func() error {
		defer e.step("joint")()
		if err := gctx.Err(); err != nil {
			return err
		}
		iRA, err := binning.ToBinIndex(observed.RA, bins.EdgesRA)
		if err != nil {
			return cerrors.Wrap(err, "observed", "ra")
		}
		iDec, err := binning.ToBinIndex(observed.Dec, bins.EdgesDec)
		if err != nil {
			return cerrors.Wrap(err, "observed", "dec")
		}
		iZ, err := binning.ToBinIndex(observed.Z, bins.EdgesZ)
		if err != nil {
			return cerrors.Wrap(err, "observed", "z")
		}
		iAng, err := binning.UnravelAll(iRA, iDec, numDec)
		if err != nil {
			return cerrors.Wrap(err, "observed", "ra,dec")
		}
		sparse, err = joint.Accumulate(iAng, iZ, observed.Weight, numRA*numDec, numZ)
		return cerrors.Wrap(err, "observed", "")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stepDone := e.step("mask")
	mask, err := histogram.BuildMask(angR, angD)
	stepDone()
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.OccupiedBins.Set(float64(len(mask.Occupied)))
	}
	log.Debug("angular mask built",
		"occupied", len(mask.Occupied),
		"total", mask.RABins*mask.DecBins,
	)

	dense, err := joint.SelectRows(sparse, mask.Rows())
	if err != nil {
		return nil, cerrors.Wrap(err, "observed", "")
	}

	stepDone = e.step("assemble")
	rs := assemble(bins, centerZ, centerRA, centerDec, pdfz, angR, angD, mask, dense, random, observed)
	stepDone()
	return rs, nil
}

// clip applies the out-of-range exclusion policy to one catalog and reports
// what was dropped.
func (e *Engine) clip(name string, c *catalog.Catalog, bins Binning, log *slog.Logger) *catalog.Catalog {
	clipped, report := c.ClipToEdges(bins.EdgesRA, bins.EdgesDec, bins.EdgesZ)
	if report.Dropped() > 0 {
		log.Warn("excluded out-of-range catalog entries",
			"catalog", name,
			"kept", report.Kept,
			"dropped_ra", report.DroppedRA,
			"dropped_dec", report.DroppedDec,
			"dropped_z", report.DroppedZ,
		)
		if e.metrics != nil {
			e.metrics.RowsDroppedTotal.WithLabelValues(name, "ra").Add(float64(report.DroppedRA))
			e.metrics.RowsDroppedTotal.WithLabelValues(name, "dec").Add(float64(report.DroppedDec))
			e.metrics.RowsDroppedTotal.WithLabelValues(name, "z").Add(float64(report.DroppedZ))
		}
	}
	return clipped
}

// step starts a timed pipeline step and returns its completion callback.
func (e *Engine) step(name string) func() {
	start := time.Now()
	return func() {
		if e.metrics != nil {
			e.metrics.StepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}
	}
}

// assemble packages all computed pieces in the fixed output order.
func assemble(
	bins Binning,
	centerZ, centerRA, centerDec, pdfz []float64,
	angR, angD *mat.Dense,
	mask *histogram.Mask,
	dense *mat.Dense,
	random, observed *catalog.Catalog,
) *ResultSet {
	angProvenance := append(append([]string{}, random.Sources...), observed.Sources...)

	// Compact widths for the angular bin index columns.
	raType := binning.WidthFor(mask.RABins - 1)
	decType := binning.WidthFor(mask.DecBins - 1)

	binRA := make([]int64, len(mask.Occupied))
	binDec := make([]int64, len(mask.Occupied))
	countR := make([]float64, len(mask.Occupied))
	countD := make([]float64, len(mask.Occupied))
	for i, p := range mask.Occupied {
		binRA[i] = int64(p.RA)
		binDec[i] = int64(p.Dec)
		countR[i] = angR.At(p.RA, p.Dec)
		countD[i] = angD.At(p.RA, p.Dec)
	}

	return &ResultSet{Artifacts: []Artifact{
		{
			Name:  ArtifactCenterZ,
			Table: &Table{Columns: []Column{float64Column("binCenter", centerZ)}},
		},
		{
			Name:  ArtifactCenterRA,
			Table: &Table{Columns: []Column{float64Column("binCenter", centerRA)}},
		},
		{
			Name:  ArtifactCenterDec,
			Table: &Table{Columns: []Column{float64Column("binCenter", centerDec)}},
		},
		{
			Name: ArtifactPDFZ,
			Table: &Table{Columns: []Column{
				float64Column("lowEdge", bins.EdgesZ[:len(bins.EdgesZ)-1]),
				float32Column("probability", pdfz),
			}},
			Comments:   []string{"Redshift probability histogram of the random catalog."},
			Provenance: random.Sources,
		},
		{
			Name: ArtifactAng,
			Table: &Table{Columns: []Column{
				intColumn("binRA", raType, binRA),
				intColumn("binDec", decType, binDec),
				float32Column("countR", countR),
				float32Column("countD", countD),
			}},
			Comments: []string{
				"Occupied cells of the (ra, dec) histograms, one row per cell in row-major order.",
				"countR uses the z-independent weights of the random catalog.",
			},
			Provenance: angProvenance,
		},
		{
			Name:   ArtifactAngZD,
			Matrix: dense,
			Comments: []string{
				"Joint (angular, z) weighted histogram of the observed catalog.",
				"Rows align with the ang table; columns are z bins.",
			},
			Provenance: observed.Sources,
		},
	}}
}
