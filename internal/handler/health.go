package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/wanderai/api-server/internal/jobs"
)

type ProbeReader interface {
	Latest(ctx context.Context) jobs.ProbeResult
}

type HealthHandler struct {
	probe ProbeReader
}

func NewHealthHandler(probe ProbeReader) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"wanderai":  h.probe.Latest(r.Context()),
	})
}
