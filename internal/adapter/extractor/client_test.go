package extractor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("%PDF-1.4 fake"), body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pages": [
			{"page_number": 1, "text": "Good  morning,\neveryone."},
			{"page_number": 2, "text": "   "},
			{"page_number": 3, "text": "Revenue\tgrew 12%."}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	pages, err := client.Extract(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Good morning, everyone.", pages[0].Text)
	assert.Equal(t, 3, pages[1].Number)
	assert.Equal(t, "Revenue grew 12%.", pages[1].Text)
}

func TestExtract_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Extract(context.Background(), []byte("%PDF"))
	assert.ErrorContains(t, err, "extractor error: 500")
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"collapse   runs\t\tof\n\nwhitespace", "collapse runs of whitespace"},
		{"  trimmed  ", "trimmed"},
		{"strip\x00control\x07chars", "stripcontrolchars"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in))
	}
}
