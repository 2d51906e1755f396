package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"transcriptrag/internal/retrieval"
	"transcriptrag/internal/vector"
	"transcriptrag/internal/worker"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassTranscriptChunk).
		WithProperties(map[string]interface{}{
			"content":      chunk.Content,
			"documentId":   chunk.DocumentID,
			"documentName": chunk.DocumentName,
			"companyName":  chunk.CompanyName,
			"chunkIndex":   chunk.ChunkIndex,
			"pageNumber":   chunk.PageNumber,
		}).
		WithVector(chunk.Vector).
		Do(ctx)
	return err
}

func (s *Store) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassTranscriptChunk).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(documentID)).
		Do(ctx)
	return err
}

// Query runs a nearVector search. Certainty doubles as the similarity score:
// it is in [0, 1] with higher meaning closer, so the store-side cutoff and
// the caller's threshold use the same scale.
func (s *Store) Query(ctx context.Context, vec []float32, limit int, minSimilarity float64, documentID, company string) ([]retrieval.Match, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vec).
		WithCertainty(float32(minSimilarity))

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "documentId"},
		{Name: "documentName"},
		{Name: "companyName"},
		{Name: "chunkIndex"},
		{Name: "pageNumber"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	query := s.client.GraphQL().Get().
		WithClassName(vector.ClassTranscriptChunk).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...)

	if where := buildWhere(documentID, company); where != nil {
		query = query.WithWhere(where)
	}

	res, err := query.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	return parseMatches(res.Data), nil
}

func buildWhere(documentID, company string) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	if documentID != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(documentID))
	}
	if company != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"companyName"}).
			WithOperator(filters.Equal).
			WithValueString(company))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

func parseMatches(data map[string]models.JSONObject) []retrieval.Match {
	var matches []retrieval.Match

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return matches
	}
	chunks, ok := get[vector.ClassTranscriptChunk].([]interface{})
	if !ok {
		return matches
	}

	for _, c := range chunks {
		props, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		var m retrieval.Match
		if content, ok := props["content"].(string); ok {
			m.Text = content
		}
		if id, ok := props["documentId"].(string); ok {
			m.DocumentID = id
		}
		if name, ok := props["documentName"].(string); ok {
			m.DocumentName = name
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			m.ChunkIndex = int(idx)
		}
		if page, ok := props["pageNumber"].(float64); ok {
			m.PageNumber = int(page)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				m.Similarity = certainty
			}
		}

		matches = append(matches, m)
	}
	return matches
}

// EnsureSchema creates or backfills the TranscriptChunk class.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

// CountChunks reports the number of stored chunk objects via an aggregate
// query.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	meta := graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassTranscriptChunk).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	return parseAggregateCount(res.Data), nil
}

func parseAggregateCount(data map[string]models.JSONObject) int {
	aggregate, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	rows, ok := aggregate[vector.ClassTranscriptChunk].([]interface{})
	if !ok || len(rows) == 0 {
		return 0
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0
	}
	return int(count)
}
