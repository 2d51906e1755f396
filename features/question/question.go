package question

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"transcriptrag/internal/retrieval"
)

const noContextAnswer = "I couldn't find any relevant information in the uploaded documents to answer this question."

const promptTemplate = `You are a financial analyst assistant specializing in earnings call transcripts.
Answer the question using ONLY the context below. If the context does not
contain the answer, say so. Be precise with figures and attribute statements
to their speakers where the context names them.

Context:
%s

Question: %s

Answer:`

// Citation points back at one retrieved chunk. Excerpt is capped so the
// response stays reviewable; the full chunk is available via the document's
// chunk listing.
type Citation struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	PageNumber   int     `json:"page_number"`
	ChunkIndex   int     `json:"chunk_index"`
	Excerpt      string  `json:"excerpt"`
	Similarity   float64 `json:"similarity"`
}

type Answer struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Confidence float64    `json:"confidence"`
	Citations  []Citation `json:"citations"`
	LatencyMs  int64      `json:"latency_ms"`
}

type Retriever interface {
	Search(ctx context.Context, question, documentID, company string) ([]retrieval.Match, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	retriever Retriever
	generator Generator
}

func NewService(retriever Retriever, generator Generator) *Service {
	return &Service{retriever: retriever, generator: generator}
}

// Ask retrieves context for the question and composes a grounded answer.
// When nothing clears the similarity threshold it answers honestly with zero
// confidence instead of calling the model on an empty context.
func (s *Service) Ask(ctx context.Context, q, documentID, company string) (*Answer, error) {
	start := time.Now()

	matches, err := s.retriever.Search(ctx, q, documentID, company)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(matches) == 0 {
		return &Answer{
			Question:   q,
			Answer:     noContextAnswer,
			Confidence: 0.0,
			Citations:  []Citation{},
			LatencyMs:  time.Since(start).Milliseconds(),
		}, nil
	}

	prompt := fmt.Sprintf(promptTemplate, buildContext(matches), q)

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.WarnContext(ctx, "model returned empty answer", "question", q)
		text = "Unable to generate answer"
	}

	answer := &Answer{
		Question:   q,
		Answer:     text,
		Confidence: meanSimilarity(matches),
		Citations:  buildCitations(matches),
		LatencyMs:  time.Since(start).Milliseconds(),
	}

	slog.InfoContext(ctx, "question answered",
		"citations", len(answer.Citations), "confidence", answer.Confidence, "latency_ms", answer.LatencyMs)
	return answer, nil
}

func buildContext(matches []retrieval.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("[Document: %s, Page: %d]\n%s\n", m.DocumentName, m.PageNumber, m.Text))
	}
	return strings.Join(parts, "\n---\n")
}

func meanSimilarity(matches []retrieval.Match) float64 {
	var sum float64
	for _, m := range matches {
		sum += m.Similarity
	}
	return sum / float64(len(matches))
}

func buildCitations(matches []retrieval.Match) []Citation {
	citations := make([]Citation, 0, len(matches))
	for _, m := range matches {
		excerpt := m.Text
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		citations = append(citations, Citation{
			DocumentID:   m.DocumentID,
			DocumentName: m.DocumentName,
			PageNumber:   m.PageNumber,
			ChunkIndex:   m.ChunkIndex,
			Excerpt:      excerpt,
			Similarity:   m.Similarity,
		})
	}
	return citations
}
