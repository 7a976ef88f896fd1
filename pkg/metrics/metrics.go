// Package metrics defines the Prometheus metric collectors used by the
// preprocessing pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	StepDuration         *prometheus.HistogramVec
	CatalogRows          *prometheus.GaugeVec
	RowsDroppedTotal     *prometheus.CounterVec
	OccupiedBins         prometheus.Gauge
	ArtifactBytesTotal   prometheus.Counter
	JobsTotal            *prometheus.CounterVec
	JobsInFlight         prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preprocess_runs_total",
				Help: "Total preprocessing runs by outcome (ok, or the error kind).",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "preprocess_run_duration_seconds",
				Help:    "Wall time of a full preprocessing run.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "preprocess_step_duration_seconds",
				Help:    "Wall time per pipeline step (pdf_z, ang_random, ang_observed, joint, mask, assemble).",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"step"},
		),
		CatalogRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "preprocess_catalog_rows",
				Help: "Entries loaded per catalog for the current run.",
			},
			[]string{"catalog"},
		),
		RowsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preprocess_rows_dropped_total",
				Help: "Catalog entries dropped for falling outside the configured bin edges.",
			},
			[]string{"catalog", "axis"},
		),
		OccupiedBins: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "preprocess_occupied_angular_bins",
				Help: "Occupied (ra, dec) cells selected by the mask in the last run.",
			},
		),
		ArtifactBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "preprocess_artifact_bytes_total",
				Help: "Total bytes written to result containers.",
			},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preprocess_jobs_total",
				Help: "Worker jobs by terminal status (completed, failed, duplicate).",
			},
			[]string{"status"},
		),
		JobsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "preprocess_jobs_in_flight",
				Help: "Jobs currently being processed by this worker.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.StepDuration,
		m.CatalogRows,
		m.RowsDroppedTotal,
		m.OccupiedBins,
		m.ArtifactBytesTotal,
		m.JobsTotal,
		m.JobsInFlight,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
