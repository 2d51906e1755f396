package worker

import (
	"context"
	"log/slog"
	"time"

	"transcriptrag/features/job"
)

// JobRecorder dead-letters failed ingestions into the failed_jobs table.
// Recording is best effort; a write failure is logged and the document stays
// FAILED either way.
type JobRecorder struct {
	repo job.Repository
}

func NewJobRecorder(repo job.Repository) *JobRecorder {
	return &JobRecorder{repo: repo}
}

func (r *JobRecorder) RecordFailure(ctx context.Context, documentID, handler string, payload []byte, cause error) {
	j := &job.Job{
		DocumentID: documentID,
		Handler:    handler,
		Payload:    payload,
		Error:      cause.Error(),
		CreatedAt:  time.Now(),
	}
	if err := r.repo.Save(ctx, j); err != nil {
		slog.ErrorContext(ctx, "failed to record dead-lettered job", "error", err, "document_id", documentID)
	}
}
