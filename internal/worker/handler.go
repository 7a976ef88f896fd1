package worker

import (
	"encoding/json"
	"net/http"

	"github.com/corrkit/corrkit/pkg/logger"
)

// Handler serves the worker's job status API.
type Handler struct {
	store *Store
}

// NewHandler creates a Handler over the given store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Status handles GET /api/v1/jobs/{id}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		http.Error(w, `{"error":"missing job id"}`, http.StatusBadRequest)
		return
	}
	rec, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to load job record", "job_id", jobID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, `{"error":"job not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
