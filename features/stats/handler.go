package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"transcriptrag/internal/middleware"
)

type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

type ChunkCounter interface {
	CountChunks(ctx context.Context) (int, error)
}

type JobCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	documents DocumentCounter
	chunks    ChunkCounter
	jobs      JobCounter
}

func NewHandler(documents DocumentCounter, chunks ChunkCounter, jobs JobCounter) *Handler {
	return &Handler{documents: documents, chunks: chunks, jobs: jobs}
}

// Get reports corpus-wide counts. The chunk count comes from the vector
// store, so a mismatch with the relational tables points at a partially
// failed ingestion.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documents, err := h.documents.Count(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	chunks, err := h.chunks.CountChunks(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	failedJobs, err := h.jobs.Count(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"data": map[string]int{
			"documents":   documents,
			"chunks":      chunks,
			"failed_jobs": failedJobs,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "failed to collect stats", "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	resp := map[string]any{
		"error": map[string]string{
			"code":    "INTERNAL_ERROR",
			"message": "Failed to collect stats",
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
