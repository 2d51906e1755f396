package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"transcriptrag/internal/middleware"
)

type Handler struct {
	service         *Service
	uploadDir       string
	maxUploadSizeMB int64
}

func NewHandler(service *Service, uploadDir string, maxUploadSizeMB int64) *Handler {
	return &Handler{service: service, uploadDir: uploadDir, maxUploadSizeMB: maxUploadSizeMB}
}

// Upload accepts a multipart PDF and queues it for ingestion. Validation
// failures reject the request before any document record exists.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.maxUploadSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Unable to retrieve file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validateUpload(header); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	companyName := r.FormValue("companyName")

	path, err := h.storeFile(file, header.Filename)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to store upload", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to save file", http.StatusInternalServerError)
		return
	}

	doc, err := h.service.Upload(r.Context(), header.Filename, companyName, path, header.Size)
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			slog.WarnContext(r.Context(), "failed to clean up uploaded file", "error", removeErr)
		}
		slog.ErrorContext(r.Context(), "upload failed", "error", err, "filename", header.Filename)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	h.encode(w, map[string]any{
		"data":    doc,
		"message": "Document uploaded successfully. Processing has started.",
	})
}

func validateUpload(header *multipart.FileHeader) error {
	if header.Size == 0 {
		return errors.New("File is empty")
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return errors.New("File must be PDF")
	}
	// Browsers and multipart writers often label PDFs as octet-stream, so the
	// extension check above is the real gate.
	switch header.Header.Get("Content-Type") {
	case "", "application/pdf", "application/octet-stream":
	default:
		return errors.New("File must be PDF")
	}
	return nil
}

func (h *Handler) storeFile(file multipart.File, originalName string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(originalName))
	path := filepath.Clean(filepath.Join(h.uploadDir, filename))

	dst, err := os.Create(path) // #nosec G304 -- path is UUID-based under the configured upload dir
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return path, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context(), r.URL.Query().Get("company"))
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, map[string]any{
		"data": docs,
		"meta": map[string]int{"count": len(docs)},
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, map[string]any{"data": doc})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, map[string]any{
		"data": map[string]any{
			"document_id":  doc.ID,
			"filename":     doc.Filename,
			"company_name": doc.CompanyName,
			"status":       doc.Status,
			"uploaded_at":  doc.UploadedAt,
			"message":      statusMessage(doc),
		},
	})
}

func (h *Handler) GetChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.service.GetChunks(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if chunks == nil {
		chunks = []ChunkRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, map[string]any{
		"data": chunks,
		"meta": map[string]int{"count": len(chunks)},
	})
}

func statusMessage(doc *Document) string {
	switch doc.Status {
	case StatusPending:
		return "Document is waiting to be processed"
	case StatusProcessing:
		return "Document is currently being processed"
	case StatusCompleted:
		return fmt.Sprintf("Document processed successfully. %d chunks created.", doc.TotalChunks)
	case StatusFailed:
		return "Document processing failed"
	}
	return ""
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
