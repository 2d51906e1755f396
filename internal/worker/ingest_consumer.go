package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nsqio/go-nsq"

	"transcriptrag/features/document"
	"transcriptrag/internal/middleware"
	"transcriptrag/internal/text"
)

// IngestConsumer processes queued transcript ingestions: extract, chunk,
// embed, store. A task either completes fully or the document is marked
// FAILED and dead-lettered; NSQ-level retries are reserved for panics and
// poison pills are dropped outright.
type IngestConsumer struct {
	extractor Extractor
	embedder  Embedder
	store     VectorStore
	documents DocumentStore
	failures  FailureRecorder
	chunker   text.Chunker
}

func NewIngestConsumer(extractor Extractor, embedder Embedder, store VectorStore, documents DocumentStore, failures FailureRecorder, chunker text.Chunker) *IngestConsumer {
	return &IngestConsumer{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		documents: documents,
		failures:  failures,
		chunker:   chunker,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task document.IngestTask
	if err := json.Unmarshal(m.Body, &task); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if task.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, task.CorrelationID)
	}

	found, err := h.documents.ApplyEvent(ctx, task.DocumentID, document.EventProcessingStarted)
	if err != nil {
		if errors.Is(err, document.ErrIllegalTransition) {
			// Redelivery of an already-settled document; nothing to do.
			slog.WarnContext(ctx, "skipping ingest for settled document", "document_id", task.DocumentID)
			return nil
		}
		slog.ErrorContext(ctx, "failed to mark document processing", "error", err, "document_id", task.DocumentID)
		return err // Retry
	}
	if !found {
		slog.WarnContext(ctx, "ingest task for unknown document", "document_id", task.DocumentID)
		return nil
	}

	if err := h.process(ctx, task); err != nil {
		h.fail(ctx, task, m.Body, err)
		return nil
	}
	return nil
}

func (h *IngestConsumer) process(ctx context.Context, task document.IngestTask) error {
	pdf, err := os.ReadFile(task.Path) // #nosec G304 -- path originates from our own upload handler
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	extractCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pages, err := h.extractor.Extract(extractCtx, pdf)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if len(pages) == 0 {
		return errors.New("no extractable text in document")
	}

	chunks := h.chunker.Chunk(pages)
	if len(chunks) == 0 {
		return errors.New("chunking produced no chunks")
	}

	records := make([]document.ChunkRecord, 0, len(chunks))
	for _, c := range chunks {
		embedCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		vector, err := h.embedder.Embed(embedCtx, c.Text)
		cancel()
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.Index, err)
		}

		stored := Chunk{
			Content:      c.Text,
			Vector:       vector,
			DocumentID:   task.DocumentID,
			DocumentName: task.Filename,
			CompanyName:  task.CompanyName,
			ChunkIndex:   c.Index,
			PageNumber:   c.PageNumber,
		}
		if err := h.store.StoreChunk(ctx, stored); err != nil {
			return fmt.Errorf("store chunk %d: %w", c.Index, err)
		}

		records = append(records, document.ChunkRecord{
			DocumentID: task.DocumentID,
			Text:       c.Text,
			Index:      c.Index,
			PageNumber: c.PageNumber,
			Metadata:   c.Metadata,
		})
	}

	if err := h.documents.InsertChunks(ctx, task.DocumentID, records); err != nil {
		return fmt.Errorf("persist chunk records: %w", err)
	}

	found, err := h.documents.Complete(ctx, task.DocumentID, len(records))
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !found {
		return fmt.Errorf("document %s vanished before completion", task.DocumentID)
	}

	slog.InfoContext(ctx, "document ingested", "document_id", task.DocumentID, "chunks", len(records))
	return nil
}

func (h *IngestConsumer) fail(ctx context.Context, task document.IngestTask, payload []byte, cause error) {
	slog.ErrorContext(ctx, "ingestion failed", "error", cause, "document_id", task.DocumentID, "filename", task.Filename)

	if _, err := h.documents.ApplyEvent(ctx, task.DocumentID, document.EventProcessingFailed); err != nil {
		slog.ErrorContext(ctx, "failed to mark document failed", "error", err, "document_id", task.DocumentID)
	}

	h.failures.RecordFailure(ctx, task.DocumentID, "ingestion", payload, cause)
}
