package retrieval

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
)

func TestFileQueryLogger_ThreadSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLoggerWriter(&buf)

	concurrency := 50
	iterations := 100
	var wg sync.WaitGroup

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				logger.Log("test", []Match{{Similarity: 0.8}}, 1)
			}
		}()
	}
	wg.Wait()

	decoder := json.NewDecoder(&buf)
	count := 0
	for decoder.More() {
		var entry queryLogEntry
		if err := decoder.Decode(&entry); err != nil {
			t.Fatalf("Failed to decode entry %d: %v", count, err)
		}
		count++
	}

	if expected := concurrency * iterations; count != expected {
		t.Errorf("Expected %d entries, got %d", expected, count)
	}
}
