package question

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"transcriptrag/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type askRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id,omitempty"`
	Company    string `json:"company,omitempty"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Question is required", http.StatusBadRequest)
		return
	}

	answer, err := h.service.Ask(r.Context(), req.Question, req.DocumentID, req.Company)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to answer question", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to answer question", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": answer}); err != nil {
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
