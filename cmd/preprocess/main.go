// Command preprocess runs one preprocessing pass over a pair of catalogs.
//
// It loads the random and observed catalogs, builds the redshift PDF, the
// angular histograms and occupancy mask, and the masked joint matrix, and
// writes everything into a single .ckt container.
//
// Usage:
//
//	go run ./cmd/preprocess [-config configs/development.yaml] [-random r.csv] [-observed d.csv] [-output out.ckt]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corrkit/corrkit/internal/catalog"
	"github.com/corrkit/corrkit/internal/output"
	"github.com/corrkit/corrkit/internal/preprocess"
	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/logger"
	"github.com/corrkit/corrkit/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	randomPath := flag.String("random", "", "random catalog CSV (overrides config)")
	observedPath := flag.String("observed", "", "observed catalog CSV (overrides config)")
	outputPath := flag.String("output", "", "output container path (overrides config)")
	overwrite := flag.Bool("overwrite", false, "replace an existing output file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *randomPath != "" {
		cfg.Catalogs.Random = config.CatalogSourceConfig{Source: "csv", Path: *randomPath}
	}
	if *observedPath != "" {
		cfg.Catalogs.Observed = config.CatalogSourceConfig{Source: "csv", Path: *observedPath}
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if *overwrite {
		cfg.Output.Overwrite = true
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("preprocessing failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	bins, err := preprocess.ResolveBinning(cfg.Binning)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *postgres.Client
	if cfg.Catalogs.Random.Source == "postgres" || cfg.Catalogs.Observed.Source == "postgres" {
		pg, err = postgres.New(cfg.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
	}

	random, err := catalog.Load(ctx, cfg.Catalogs.Random, pg)
	if err != nil {
		return fmt.Errorf("loading random catalog: %w", err)
	}
	observed, err := catalog.Load(ctx, cfg.Catalogs.Observed, pg)
	if err != nil {
		return fmt.Errorf("loading observed catalog: %w", err)
	}
	slog.Info("catalogs loaded",
		"random_rows", random.Len(),
		"observed_rows", observed.Len(),
	)

	rs, err := preprocess.New(nil).Run(ctx, bins, random, observed)
	if err != nil {
		return err
	}

	n, err := output.Write(rs, cfg.Output.Path, cfg.Output.Overwrite)
	if err != nil {
		return err
	}
	slog.Info("output written", "path", cfg.Output.Path, "bytes", n)
	return nil
}
