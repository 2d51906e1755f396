package retrieval

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type queryLogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Question      string    `json:"question"`
	NumMatches    int       `json:"num_matches"`
	TopSimilarity float64   `json:"top_similarity,omitempty"`
	LatencyMs     int64     `json:"latency_ms"`
}

// FileQueryLogger appends one JSON line per retrieval so queries can be
// replayed against chunking or threshold changes.
type FileQueryLogger struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewFileQueryLogger(path string) (*FileQueryLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	f, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	return &FileQueryLogger{writer: f}, nil
}

func NewQueryLoggerWriter(w io.Writer) *FileQueryLogger {
	return &FileQueryLogger{writer: w}
}

func (l *FileQueryLogger) Log(question string, matches []Match, tookMs int64) {
	entry := queryLogEntry{
		Timestamp:  time.Now(),
		Question:   question,
		NumMatches: len(matches),
		LatencyMs:  tookMs,
	}
	if len(matches) > 0 {
		entry.TopSimilarity = matches[0].Similarity
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.writer).Encode(entry); err != nil {
		slog.Error("failed to write query log entry", "error", err)
	}
}
