package document

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"transcriptrag/internal/config"
	"transcriptrag/internal/middleware"
)

// Document is an uploaded PDF transcript and its processing state. Status
// and TotalChunks are mutated only by the ingestion worker; TotalChunks is
// accurate only once the status reaches COMPLETED.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	CompanyName string         `json:"company_name,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	Status      Status         `json:"status"`
	TotalChunks int            `json:"total_chunks"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	StoragePath string         `json:"-"`
}

// ChunkRecord is the relational copy of a stored chunk, kept alongside the
// vector store for structured lookup. Ordering by Index reconstructs the
// original reading order.
type ChunkRecord struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Index      int            `json:"chunk_index"`
	PageNumber int            `json:"page_number"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	ListByCompany(ctx context.Context, company string) ([]Document, error)
	// ApplyEvent runs the status transition for id as a single transactional
	// update. It reports found=false when the document does not exist.
	ApplyEvent(ctx context.Context, id string, event Event) (found bool, err error)
	// Complete applies EventProcessingCompleted and records the final chunk
	// count in the same transaction.
	Complete(ctx context.Context, id string, totalChunks int) (found bool, err error)
	InsertChunks(ctx context.Context, docID string, chunks []ChunkRecord) error
	GetChunks(ctx context.Context, docID string) ([]ChunkRecord, error)
	Count(ctx context.Context) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// IngestTask is the payload published to the ingestion queue. The worker is
// correlated back to the document solely by DocumentID.
type IngestTask struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	CompanyName   string `json:"company_name,omitempty"`
	Path          string `json:"path"`
	CorrelationID string `json:"correlation_id"`
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Upload creates the PENDING document record for an already-validated,
// already-stored PDF and queues its ingestion. It returns as soon as the
// record exists; processing happens asynchronously and its outcome is
// observed via status reads.
func (s *Service) Upload(ctx context.Context, filename, companyName, path string, fileSize int64) (*Document, error) {
	doc := &Document{
		Filename:    filename,
		CompanyName: companyName,
		UploadedAt:  time.Now(),
		Status:      StatusPending,
		TotalChunks: 0,
		Metadata: map[string]any{
			"originalFilename": filename,
			"fileSize":         fileSize,
			"contentType":      "application/pdf",
		},
		StoragePath: path,
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	s.publishTask(ctx, doc, path)
	return doc, nil
}

// Reingest creates a fresh PENDING document for a previously failed upload
// and queues it again. Failed documents are terminal, so a retry always gets
// a new document id.
func (s *Service) Reingest(ctx context.Context, filename, companyName, path string) (*Document, error) {
	return s.Upload(ctx, filename, companyName, path, 0)
}

func (s *Service) publishTask(ctx context.Context, doc *Document, path string) {
	payload, _ := json.Marshal(IngestTask{
		DocumentID:    doc.ID,
		Filename:      doc.Filename,
		CompanyName:   doc.CompanyName,
		Path:          path,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})

	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest task", "error", err, "document_id", doc.ID)
	} else {
		slog.InfoContext(ctx, "published ingest task", "document_id", doc.ID, "filename", doc.Filename)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

// List returns all documents, optionally filtered by company name.
func (s *Service) List(ctx context.Context, company string) ([]Document, error) {
	if company != "" {
		return s.repo.ListByCompany(ctx, company)
	}
	return s.repo.List(ctx)
}

func (s *Service) GetChunks(ctx context.Context, id string) ([]ChunkRecord, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetChunks(ctx, id)
}
