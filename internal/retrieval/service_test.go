package retrieval_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"transcriptrag/internal/retrieval"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	return args.Get(0).([]float32), args.Error(1)
}

type MockStore struct{ mock.Mock }

func (m *MockStore) Query(ctx context.Context, vector []float32, limit int, minSimilarity float64, documentID, company string) ([]retrieval.Match, error) {
	args := m.Called(ctx, vector, limit, minSimilarity, documentID, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Match), args.Error(1)
}

func TestService_Search(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*MockEmbedder, *MockStore)
		wantErr bool
		check   func(*testing.T, []retrieval.Match)
	}{
		{
			name: "Orders By Similarity And Caps At TopK",
			setup: func(e *MockEmbedder, s *MockStore) {
				e.On("Embed", mock.Anything, "revenue?").Return([]float32{0.1}, nil)
				s.On("Query", mock.Anything, []float32{0.1}, 3, 0.7, "", "").
					Return([]retrieval.Match{
						{Text: "A", Similarity: 0.75},
						{Text: "B", Similarity: 0.95},
						{Text: "C", Similarity: 0.80},
						{Text: "D", Similarity: 0.90},
					}, nil)
			},
			check: func(t *testing.T, res []retrieval.Match) {
				assert.Len(t, res, 3)
				assert.Equal(t, "B", res[0].Text)
				assert.Equal(t, "D", res[1].Text)
				assert.Equal(t, "C", res[2].Text)
			},
		},
		{
			name: "Drops Matches Below Threshold",
			setup: func(e *MockEmbedder, s *MockStore) {
				e.On("Embed", mock.Anything, "revenue?").Return([]float32{0.1}, nil)
				s.On("Query", mock.Anything, []float32{0.1}, 3, 0.7, "", "").
					Return([]retrieval.Match{
						{Text: "A", Similarity: 0.71},
						{Text: "B", Similarity: 0.69},
						{Text: "C", Similarity: 0.70},
					}, nil)
			},
			check: func(t *testing.T, res []retrieval.Match) {
				assert.Len(t, res, 2)
				for _, m := range res {
					assert.GreaterOrEqual(t, m.Similarity, 0.7)
				}
			},
		},
		{
			name: "Empty Result",
			setup: func(e *MockEmbedder, s *MockStore) {
				e.On("Embed", mock.Anything, "revenue?").Return([]float32{0.1}, nil)
				s.On("Query", mock.Anything, []float32{0.1}, 3, 0.7, "", "").
					Return([]retrieval.Match{}, nil)
			},
			check: func(t *testing.T, res []retrieval.Match) {
				assert.Empty(t, res)
			},
		},
		{
			name: "Embedder Error",
			setup: func(e *MockEmbedder, s *MockStore) {
				e.On("Embed", mock.Anything, "revenue?").Return([]float32{}, errors.New("embed error"))
			},
			wantErr: true,
		},
		{
			name: "Store Error",
			setup: func(e *MockEmbedder, s *MockStore) {
				e.On("Embed", mock.Anything, "revenue?").Return([]float32{0.1}, nil)
				s.On("Query", mock.Anything, []float32{0.1}, 3, 0.7, "", "").
					Return(nil, errors.New("store error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := new(MockEmbedder)
			s := new(MockStore)
			tt.setup(e, s)

			svc := retrieval.NewService(e, s, nil, 3, 0.7)
			res, err := svc.Search(context.Background(), "revenue?", "", "")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, res)
				}
			}
			e.AssertExpectations(t)
			s.AssertExpectations(t)
		})
	}
}

func TestService_Search_PassesFilters(t *testing.T) {
	e := new(MockEmbedder)
	s := new(MockStore)

	e.On("Embed", mock.Anything, "guidance?").Return([]float32{0.2}, nil)
	s.On("Query", mock.Anything, []float32{0.2}, 5, 0.7, "doc-1", "Acme").
		Return([]retrieval.Match{}, nil)

	svc := retrieval.NewService(e, s, nil, 5, 0.7)
	_, err := svc.Search(context.Background(), "guidance?", "doc-1", "Acme")
	assert.NoError(t, err)
	s.AssertExpectations(t)
}

func TestService_Search_Logging(t *testing.T) {
	e := new(MockEmbedder)
	s := new(MockStore)

	e.On("Embed", mock.Anything, "test").Return([]float32{0.1}, nil)
	s.On("Query", mock.Anything, []float32{0.1}, 5, 0.7, "", "").
		Return([]retrieval.Match{{Text: "A", Similarity: 0.9}}, nil)

	var buf bytes.Buffer
	logger := retrieval.NewQueryLoggerWriter(&buf)
	svc := retrieval.NewService(e, s, logger, 5, 0.7)

	_, err := svc.Search(context.Background(), "test", "", "")
	assert.NoError(t, err)

	var entry struct {
		Question      string  `json:"question"`
		NumMatches    int     `json:"num_matches"`
		TopSimilarity float64 `json:"top_similarity"`
	}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test", entry.Question)
	assert.Equal(t, 1, entry.NumMatches)
	assert.Equal(t, 0.9, entry.TopSimilarity)
}
