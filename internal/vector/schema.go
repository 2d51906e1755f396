package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

const ClassTranscriptChunk = "TranscriptChunk"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the TranscriptChunk class if it does not exist, and
// backfills any properties missing from an older deployment.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassTranscriptChunk)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "documentId",
			DataType: []string{"string"}, // UUID as string (exact match)
		},
		{
			Name:     "documentName",
			DataType: []string{"text"},
		},
		{
			Name:     "companyName",
			DataType: []string{"string"}, // exact match for filtering
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
		{
			Name:     "pageNumber",
			DataType: []string{"int"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassTranscriptChunk,
			Description: "A chunk of an earnings call transcript",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, ClassTranscriptChunk)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassTranscriptChunk, p); err != nil {
				return err
			}
		}
	}

	return nil
}
