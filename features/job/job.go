package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"transcriptrag/features/document"
)

var ErrNotFound = errors.New("job not found")

// Job is a dead-lettered ingestion task. A row is written whenever the
// worker gives up on a document, carrying enough of the original task to
// re-submit it later.
type Job struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Handler    string          `json:"handler"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	Retries    int             `json:"retries"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Repository interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]Job, error)
	IncrementRetries(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Reingester queues a fresh ingestion for a previously failed upload.
type Reingester interface {
	Reingest(ctx context.Context, filename, companyName, path string) (*document.Document, error)
}

type Service struct {
	repo      Repository
	reingests Reingester
}

func NewService(repo Repository, reingests Reingester) *Service {
	return &Service{repo: repo, reingests: reingests}
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Retry re-submits a failed ingestion. FAILED documents are terminal, so the
// retry runs under a brand new document id; the failed row is kept and its
// retry counter bumped for the audit trail.
func (s *Service) Retry(ctx context.Context, id string) (*document.Document, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var task document.IngestTask
	if err := json.Unmarshal(j.Payload, &task); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}

	doc, err := s.reingests.Reingest(ctx, task.Filename, task.CompanyName, task.Path)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementRetries(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}
