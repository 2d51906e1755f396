package job

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"transcriptrag/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListFailed(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []Job{}
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, map[string]any{
		"data": jobs,
		"meta": map[string]int{"count": len(jobs)},
	})
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := h.service.Retry(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Job not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "job retry failed", "error", err, "job_id", id)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to retry job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	h.encode(w, map[string]any{
		"data":    doc,
		"message": "Job re-queued under a new document.",
	})
}

func (h *Handler) encode(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
