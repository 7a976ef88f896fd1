package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corrkit/corrkit/internal/catalog"
	"github.com/corrkit/corrkit/internal/output"
	"github.com/corrkit/corrkit/internal/preprocess"
	"github.com/corrkit/corrkit/pkg/config"
	cerrors "github.com/corrkit/corrkit/pkg/errors"
	"github.com/corrkit/corrkit/pkg/kafka"
	"github.com/corrkit/corrkit/pkg/logger"
	"github.com/corrkit/corrkit/pkg/metrics"
	"github.com/corrkit/corrkit/pkg/postgres"
	"github.com/corrkit/corrkit/pkg/resilience"
)

// Worker turns job requests into preprocessing runs. Run failures are data
// or configuration errors and mark the job failed without retry; only the
// completion publish retries, since Kafka hiccups are transient.
type Worker struct {
	cfg      *config.Config
	engine   *preprocess.Engine
	store    *Store
	producer *kafka.Producer
	pg       *postgres.Client
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Worker. The postgres client may be nil when the configured
// catalogs are CSV-only.
func New(cfg *config.Config, engine *preprocess.Engine, store *Store, producer *kafka.Producer, pg *postgres.Client, m *metrics.Metrics) *Worker {
	return &Worker{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		producer: producer,
		pg:       pg,
		metrics:  m,
		logger:   logger.WithComponent("worker"),
	}
}

// Handle returns the Kafka message handler for the jobs topic. Malformed
// requests are logged and dropped rather than redelivered forever.
func (w *Worker) Handle() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[JobRequest](value)
		if err != nil {
			w.logger.Error("dropping undecodable job request", "error", err)
			return nil
		}
		if err := req.Validate(); err != nil {
			w.logger.Error("dropping invalid job request", "error", err)
			return nil
		}
		if req.JobID == "" {
			req.JobID = uuid.NewString()
		}
		w.process(ctx, req)
		return nil
	}
}

func (w *Worker) process(ctx context.Context, req JobRequest) {
	log := w.logger.With("job_id", req.JobID)
	ctx = logger.WithRunID(ctx, req.JobID)

	fingerprint := req.Fingerprint()
	won, holder, err := w.store.Claim(ctx, fingerprint, req.JobID)
	if err != nil {
		log.Error("failed to claim job fingerprint", "error", err)
		// Proceed anyway: duplicated work beats silently dropped work.
	} else if !won && holder != req.JobID {
		log.Info("skipping duplicate job", "holder", holder)
		if w.metrics != nil {
			w.metrics.JobsTotal.WithLabelValues("duplicate").Inc()
		}
		conflict := cerrors.Newf(cerrors.ErrJobConflict, "", "", "same work already running as %s", holder)
		dup := &JobRecord{
			JobID:       req.JobID,
			Status:      StatusFailed,
			Error:       conflict.Error(),
			ErrorKind:   cerrors.Kind(conflict),
			SubmittedAt: time.Now().UTC(),
			FinishedAt:  time.Now().UTC(),
		}
		if err := w.store.Put(ctx, dup); err != nil {
			log.Error("failed to store duplicate job record", "error", err)
		}
		return
	}

	if w.metrics != nil {
		w.metrics.JobsInFlight.Inc()
		defer w.metrics.JobsInFlight.Dec()
	}

	rec := &JobRecord{
		JobID:       req.JobID,
		Status:      StatusRunning,
		OutputPath:  req.OutputPath,
		SubmittedAt: time.Now().UTC(),
	}
	if err := w.store.Put(ctx, rec); err != nil {
		log.Error("failed to store job record", "error", err)
	}

	start := time.Now()
	runErr := w.run(ctx, req, rec)

	rec.FinishedAt = time.Now().UTC()
	if runErr != nil {
		rec.Status = StatusFailed
		rec.Error = runErr.Error()
		rec.ErrorKind = cerrors.Kind(runErr)
		log.Error("job failed", "error", runErr, "kind", rec.ErrorKind)
		if err := w.store.Release(ctx, fingerprint); err != nil {
			log.Error("failed to release job fingerprint", "error", err)
		}
	} else {
		rec.Status = StatusCompleted
		log.Info("job completed",
			"duration", time.Since(start).Round(time.Millisecond),
			"output", rec.OutputPath,
			"bytes", rec.OutputBytes,
		)
	}
	if w.metrics != nil {
		w.metrics.JobsTotal.WithLabelValues(string(rec.Status)).Inc()
	}
	if err := w.store.Put(ctx, rec); err != nil {
		log.Error("failed to store final job record", "error", err)
	}

	event := CompletionEvent{
		JobID:       rec.JobID,
		Status:      rec.Status,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OutputPath:  rec.OutputPath,
		OutputBytes: rec.OutputBytes,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	publish := func() error {
		return w.producer.Publish(ctx, kafka.Event{Key: rec.JobID, Value: event})
	}
	if err := resilience.Retry(ctx, "publish-completion", resilience.RetryConfig{}, publish); err != nil {
		log.Error("failed to publish completion event", "error", err)
	}
}

// run executes one job end to end: resolve binning, load catalogs, run the
// engine, write the container.
func (w *Worker) run(ctx context.Context, req JobRequest, rec *JobRecord) error {
	bins, err := preprocess.ResolveBinning(w.cfg.Binning)
	if err != nil {
		return err
	}

	randomSrc := w.cfg.Catalogs.Random
	if req.RandomPath != "" {
		randomSrc = config.CatalogSourceConfig{Source: "csv", Path: req.RandomPath}
	}
	observedSrc := w.cfg.Catalogs.Observed
	if req.ObservedPath != "" {
		observedSrc = config.CatalogSourceConfig{Source: "csv", Path: req.ObservedPath}
	}

	random, err := catalog.Load(ctx, randomSrc, w.pg)
	if err != nil {
		return fmt.Errorf("loading random catalog: %w", err)
	}
	observed, err := catalog.Load(ctx, observedSrc, w.pg)
	if err != nil {
		return fmt.Errorf("loading observed catalog: %w", err)
	}

	rs, err := w.engine.Run(ctx, bins, random, observed)
	if err != nil {
		return err
	}
	if ang := rs.ByName(preprocess.ArtifactAng); ang != nil && ang.Table != nil {
		rec.OccupiedBins = ang.Table.Rows()
	}

	n, err := output.Write(rs, req.OutputPath, req.Overwrite)
	if err != nil {
		return err
	}
	rec.OutputBytes = n
	if w.metrics != nil {
		w.metrics.ArtifactBytesTotal.Add(float64(n))
	}
	return nil
}
