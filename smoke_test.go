package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wstore "transcriptrag/internal/adapter/weaviate"
	"transcriptrag/internal/app"
	"transcriptrag/internal/config"
	"transcriptrag/internal/testutils"
	"transcriptrag/internal/text"
)

type smokeEmbedder struct{}

func (smokeEmbedder) Embed(ctx context.Context, content string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type smokeGenerator struct{}

func (smokeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "generated answer", nil
}

type smokeExtractor struct{}

func (smokeExtractor) Extract(ctx context.Context, pdf []byte) ([]text.PageText, error) {
	return []text.PageText{{Number: 1, Text: "Revenue grew twelve percent."}}, nil
}

func TestSmoke_UploadFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	store := wstore.NewStore(suite.Weaviate)
	require.NoError(t, store.EnsureSchema(context.Background()))

	cfg := &config.Config{
		ChunkSize:           800,
		ChunkOverlap:        150,
		RetrievalTopK:       5,
		SimilarityThreshold: 0.7,
		UploadDir:           t.TempDir(),
		MaxUploadSizeMB:     50,
		QueryLogPath:        t.TempDir() + "/query.log",
		ServerPort:          0,
	}

	a, err := app.New(cfg, suite.DB, store, suite.NSQ, smokeEmbedder{}, smokeGenerator{}, smokeExtractor{})
	require.NoError(t, err)

	server := httptest.NewServer(a.Handler)
	defer server.Close()

	// Health
	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Upload a PDF; it lands PENDING and a task is queued.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "q3.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 smoke"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("companyName", "Acme"))
	require.NoError(t, writer.Close())

	resp, err = http.Post(server.URL+"/documents/upload", writer.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploadResp struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploadResp))
	require.NotEmpty(t, uploadResp.Data.ID)
	assert.Equal(t, "PENDING", uploadResp.Data.Status)

	// Status endpoint sees the same document.
	resp, err = http.Get(server.URL + "/documents/" + uploadResp.Data.ID + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Stats reflects the single document.
	resp, err = http.Get(server.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var statsResp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statsResp))
	assert.Equal(t, 1, statsResp.Data["documents"])
}
