package worker

import (
	"encoding/json"
	"testing"
)

func TestFingerprintStableAndIDIndependent(t *testing.T) {
	a := JobRequest{JobID: "one", RandomPath: "r.csv", ObservedPath: "d.csv", OutputPath: "out.ckt"}
	b := JobRequest{JobID: "two", RandomPath: "r.csv", ObservedPath: "d.csv", OutputPath: "out.ckt"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint must not depend on job ID")
	}
	if a.Fingerprint() != a.Fingerprint() {
		t.Error("fingerprint must be stable")
	}
}

func TestFingerprintDistinguishesWork(t *testing.T) {
	base := JobRequest{RandomPath: "r.csv", ObservedPath: "d.csv", OutputPath: "out.ckt"}
	variants := []JobRequest{
		{RandomPath: "other.csv", ObservedPath: "d.csv", OutputPath: "out.ckt"},
		{RandomPath: "r.csv", ObservedPath: "other.csv", OutputPath: "out.ckt"},
		{RandomPath: "r.csv", ObservedPath: "d.csv", OutputPath: "other.ckt"},
		{RandomPath: "r.csv", ObservedPath: "d.csv", OutputPath: "out.ckt", Overwrite: true},
	}
	for i, v := range variants {
		if v.Fingerprint() == base.Fingerprint() {
			t.Errorf("variant %d collides with base fingerprint", i)
		}
	}
}

func TestValidateRequiresOutputPath(t *testing.T) {
	req := JobRequest{RandomPath: "r.csv"}
	if err := req.Validate(); err == nil {
		t.Fatal("expected validation error for missing output_path")
	}
	req.OutputPath = "out.ckt"
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestJobRequestJSONShape(t *testing.T) {
	data := []byte(`{"job_id":"abc","random_path":"r.csv","observed_path":"d.csv","output_path":"out.ckt","overwrite":true}`)
	var req JobRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if req.JobID != "abc" || req.RandomPath != "r.csv" || !req.Overwrite {
		t.Errorf("unexpected request: %+v", req)
	}
}
