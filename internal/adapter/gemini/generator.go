package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: "gemini-2.0-flash"}, nil
}

// Generate runs the prompt and returns the concatenated text parts of the
// first candidate. An empty string with a nil error means the model produced
// no usable text; the caller decides how to surface that.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating answer", "model", g.model, "prompt_length", len(prompt))

	model := g.client.GenerativeModel(g.model)
	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}
