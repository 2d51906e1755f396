package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"transcriptrag/features/document"
	"transcriptrag/internal/text"
	"transcriptrag/internal/worker"
)

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(ctx context.Context, pdf []byte) ([]text.PageText, error) {
	args := m.Called(ctx, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]text.PageText), args.Error(1)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, content string) ([]float32, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVectorStore struct{ mock.Mock }

func (m *MockVectorStore) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	args := m.Called(ctx, chunk)
	return args.Error(0)
}

type MockDocumentStore struct{ mock.Mock }

func (m *MockDocumentStore) ApplyEvent(ctx context.Context, id string, event document.Event) (bool, error) {
	args := m.Called(ctx, id, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentStore) Complete(ctx context.Context, id string, totalChunks int) (bool, error) {
	args := m.Called(ctx, id, totalChunks)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentStore) InsertChunks(ctx context.Context, docID string, chunks []document.ChunkRecord) error {
	args := m.Called(ctx, docID, chunks)
	return args.Error(0)
}

type MockFailureRecorder struct{ mock.Mock }

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, documentID, handler string, payload []byte, cause error) {
	m.Called(ctx, documentID, handler, payload, cause)
}
