package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Match is one retrieved chunk with its similarity to the query. Similarity
// is in [0, 1], higher meaning more similar.
type Match struct {
	Text         string
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	PageNumber   int
	Similarity   float64
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore returns candidate matches for a query vector. Implementations
// may pre-filter by similarity and limit, but Search re-applies both so the
// caller's guarantees never depend on the store.
type VectorStore interface {
	Query(ctx context.Context, vector []float32, limit int, minSimilarity float64, documentID, company string) ([]Match, error)
}

type QueryLogger interface {
	Log(question string, matches []Match, tookMs int64)
}

type Service struct {
	embedder  Embedder
	store     VectorStore
	queryLog  QueryLogger
	topK      int
	threshold float64
}

func NewService(embedder Embedder, store VectorStore, queryLog QueryLogger, topK int, threshold float64) *Service {
	return &Service{
		embedder:  embedder,
		store:     store,
		queryLog:  queryLog,
		topK:      topK,
		threshold: threshold,
	}
}

// Search embeds the question and returns at most topK matches at or above
// the similarity threshold, ordered most similar first. Either filter may be
// empty; documentID is an exact match, company a stored-name match.
func (s *Service) Search(ctx context.Context, question, documentID, company string) ([]Match, error) {
	start := time.Now()

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.store.Query(ctx, vector, s.topK, s.threshold, documentID, company)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.Similarity >= s.threshold {
			filtered = append(filtered, m)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Similarity > filtered[j].Similarity
	})
	if len(filtered) > s.topK {
		filtered = filtered[:s.topK]
	}

	tookMs := time.Since(start).Milliseconds()
	slog.InfoContext(ctx, "retrieval complete",
		"matches", len(filtered), "took_ms", tookMs, "document_id", documentID, "company", company)

	if s.queryLog != nil {
		s.queryLog.Log(question, filtered, tookMs)
	}
	return filtered, nil
}
