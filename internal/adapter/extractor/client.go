package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"transcriptrag/internal/text"
)

// Client talks to the PDF extraction service: raw PDF bytes in, per-page
// plain text out. Extraction runs out of process so a malformed PDF can
// never take the worker down with it.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type extractResponse struct {
	Pages []struct {
		PageNumber int    `json:"page_number"`
		Text       string `json:"text"`
	} `json:"pages"`
}

// Extract sends the PDF for text extraction and returns its non-empty pages
// in order. Page text is normalized before it reaches the chunker.
func (c *Client) Extract(ctx context.Context, pdf []byte) ([]text.PageText, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/extract", bytes.NewReader(pdf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("extractor error: %d", resp.StatusCode)
	}

	var result extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	var pages []text.PageText
	for _, p := range result.Pages {
		cleaned := cleanText(p.Text)
		if cleaned == "" {
			continue
		}
		pages = append(pages, text.PageText{Number: p.PageNumber, Text: cleaned})
	}
	return pages, nil
}

// cleanText collapses runs of whitespace into single spaces and strips
// control characters PDF extraction tends to leave behind.
func cleanText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				sb.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			continue
		default:
			sb.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
