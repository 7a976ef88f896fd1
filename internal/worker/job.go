// Package worker consumes preprocessing job requests from Kafka, runs them
// through the engine, tracks their status in Redis, and publishes completion
// events.
package worker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a preprocessing job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// JobRequest is one preprocessing job consumed from the jobs topic. Catalog
// and output paths override the worker's base configuration; unset fields
// fall back to it.
type JobRequest struct {
	JobID        string `json:"job_id,omitempty"`
	RandomPath   string `json:"random_path,omitempty"`
	ObservedPath string `json:"observed_path,omitempty"`
	OutputPath   string `json:"output_path"`
	Overwrite    bool   `json:"overwrite,omitempty"`
}

// Validate checks the request before any work starts.
func (r *JobRequest) Validate() error {
	if r.OutputPath == "" {
		return fmt.Errorf("job request has no output_path")
	}
	return nil
}

// Fingerprint hashes the work description (not the job ID) so resubmissions
// of the same work deduplicate regardless of their IDs.
func (r *JobRequest) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%t",
		r.RandomPath, r.ObservedPath, r.OutputPath, r.Overwrite)
	return hex.EncodeToString(h.Sum(nil))
}

// JobRecord is the stored status of a job, kept in Redis until its TTL.
type JobRecord struct {
	JobID        string    `json:"job_id"`
	Status       JobStatus `json:"status"`
	Error        string    `json:"error,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	OccupiedBins int       `json:"occupied_bins,omitempty"`
	OutputBytes  int64     `json:"output_bytes,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`
}

// CompletionEvent is published to the completions topic when a job reaches a
// terminal status.
type CompletionEvent struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	OutputPath  string    `json:"output_path,omitempty"`
	OutputBytes int64     `json:"output_bytes,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
}
