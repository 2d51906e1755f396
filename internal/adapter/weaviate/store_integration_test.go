package weaviate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcriptrag/internal/adapter/weaviate"
	"transcriptrag/internal/testutils"
	"transcriptrag/internal/worker"
)

func TestWeaviateStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := weaviate.NewStore(s.Weaviate)
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))

	vec := make([]float32, 8)
	vec[0] = 1.0

	chunk := worker.Chunk{
		Content:      "Revenue grew twelve percent year over year.",
		Vector:       vec,
		DocumentID:   "11111111-1111-1111-1111-111111111111",
		DocumentName: "q3.pdf",
		CompanyName:  "Acme",
		ChunkIndex:   0,
		PageNumber:   2,
	}
	require.NoError(t, store.StoreChunk(ctx, chunk))

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Same vector: certainty is 1.0, comfortably above any threshold.
	matches, err := store.Query(ctx, vec, 5, 0.7, "", "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, chunk.Content, matches[0].Text)
	assert.Equal(t, chunk.DocumentID, matches[0].DocumentID)
	assert.Equal(t, 2, matches[0].PageNumber)
	assert.Greater(t, matches[0].Similarity, 0.99)

	// Filter by a different document excludes it.
	matches, err = store.Query(ctx, vec, 5, 0.7, "22222222-2222-2222-2222-222222222222", "")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Company filter matches the stored name exactly.
	matches, err = store.Query(ctx, vec, 5, 0.7, "", "Acme")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, store.DeleteChunksByDocument(ctx, chunk.DocumentID))
	count, err = store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
