package testutils

import (
	"context"

	"transcriptrag/internal/retrieval"
	"transcriptrag/internal/worker"
)

// MockVectorStore is a configurable test double for the app's VectorStore.
type MockVectorStore struct {
	EnsureSchemaErr error
	StoreChunkErr   error
	QueryResult     []retrieval.Match
	QueryErr        error
	ChunkCount      int
	ChunkCountErr   error
}

func (m *MockVectorStore) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	return m.StoreChunkErr
}

func (m *MockVectorStore) Query(ctx context.Context, vector []float32, limit int, minSimilarity float64, documentID, company string) ([]retrieval.Match, error) {
	return m.QueryResult, m.QueryErr
}

func (m *MockVectorStore) CountChunks(ctx context.Context) (int, error) {
	return m.ChunkCount, m.ChunkCountErr
}

func (m *MockVectorStore) EnsureSchema(ctx context.Context) error {
	return m.EnsureSchemaErr
}
