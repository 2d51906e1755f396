package worker

import (
	"context"

	"transcriptrag/features/document"
	"transcriptrag/internal/text"
)

// Chunk is one embedded piece of a transcript, ready for the vector store.
type Chunk struct {
	Content      string
	Vector       []float32
	DocumentID   string
	DocumentName string
	CompanyName  string
	ChunkIndex   int
	PageNumber   int
}

type Extractor interface {
	Extract(ctx context.Context, pdf []byte) ([]text.PageText, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	StoreChunk(ctx context.Context, chunk Chunk) error
}

// DocumentStore is the slice of the document repository the worker needs:
// status transitions plus the relational chunk copy.
type DocumentStore interface {
	ApplyEvent(ctx context.Context, id string, event document.Event) (found bool, err error)
	Complete(ctx context.Context, id string, totalChunks int) (found bool, err error)
	InsertChunks(ctx context.Context, docID string, chunks []document.ChunkRecord) error
}

// FailureRecorder dead-letters a task that the worker has given up on.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, documentID, handler string, payload []byte, cause error)
}
