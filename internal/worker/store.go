package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corrkit/corrkit/pkg/redis"
)

const (
	jobKeyPrefix         = "corrkit:job:"
	fingerprintKeyPrefix = "corrkit:fp:"
)

// Store keeps job records and dedupe fingerprints in Redis with a TTL.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a Store. Records expire after ttl.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: client, ttl: ttl}
}

// Put stores or replaces a job record.
func (s *Store) Put(ctx context.Context, rec *JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling job record: %w", err)
	}
	if err := s.redis.Set(ctx, jobKeyPrefix+rec.JobID, data, s.ttl); err != nil {
		return fmt.Errorf("storing job %s: %w", rec.JobID, err)
	}
	return nil
}

// Get returns the record for jobID, or nil when unknown.
func (s *Store) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	data, err := s.redis.Get(ctx, jobKeyPrefix+jobID)
	if redis.IsNilError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", jobID, err)
	}
	var rec JobRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("parsing job record %s: %w", jobID, err)
	}
	return &rec, nil
}

// Claim registers a work fingerprint and reports whether this worker won it.
// A lost claim returns the job ID that holds it.
func (s *Store) Claim(ctx context.Context, fingerprint, jobID string) (bool, string, error) {
	key := fingerprintKeyPrefix + fingerprint
	ok, err := s.redis.SetNX(ctx, key, jobID, s.ttl)
	if err != nil {
		return false, "", fmt.Errorf("claiming fingerprint: %w", err)
	}
	if ok {
		return true, jobID, nil
	}
	holder, err := s.redis.Get(ctx, key)
	if err != nil && !redis.IsNilError(err) {
		return false, "", fmt.Errorf("resolving fingerprint holder: %w", err)
	}
	return false, holder, nil
}

// Release drops a fingerprint claim so the work can be resubmitted, used
// when a claimed job fails before completing.
func (s *Store) Release(ctx context.Context, fingerprint string) error {
	return s.redis.Del(ctx, fingerprintKeyPrefix+fingerprint)
}
