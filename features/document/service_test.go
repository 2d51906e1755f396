package document

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcriptrag/internal/config"
	"transcriptrag/internal/middleware"
)

type testPublisher struct {
	lastTopic string
	lastBody  []byte
	err       error
}

func (p *testPublisher) Publish(topic string, body []byte) error {
	p.lastTopic = topic
	p.lastBody = body
	return p.err
}

type testRepo struct {
	Repository
	saved   *Document
	saveErr error
}

func (r *testRepo) Save(ctx context.Context, doc *Document) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	doc.ID = "doc-1"
	r.saved = doc
	return nil
}

func TestUpload_CreatesPendingAndPublishes(t *testing.T) {
	pub := &testPublisher{}
	repo := &testRepo{}
	svc := NewService(repo, pub)

	ctx := middleware.WithCorrelationID(context.Background(), "trace-42")
	doc, err := svc.Upload(ctx, "q3-earnings.pdf", "Acme Corp", "/uploads/abc_q3-earnings.pdf", 2048)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, 0, doc.TotalChunks)
	assert.Equal(t, "q3-earnings.pdf", doc.Metadata["originalFilename"])
	assert.Equal(t, int64(2048), doc.Metadata["fileSize"])

	assert.Equal(t, config.TopicIngestTask, pub.lastTopic)

	var task IngestTask
	require.NoError(t, json.Unmarshal(pub.lastBody, &task))
	assert.Equal(t, "doc-1", task.DocumentID)
	assert.Equal(t, "/uploads/abc_q3-earnings.pdf", task.Path)
	assert.Equal(t, "Acme Corp", task.CompanyName)
	assert.Equal(t, "trace-42", task.CorrelationID)
}

func TestUpload_SaveFailureDoesNotPublish(t *testing.T) {
	pub := &testPublisher{}
	repo := &testRepo{saveErr: errors.New("db down")}
	svc := NewService(repo, pub)

	_, err := svc.Upload(context.Background(), "a.pdf", "", "/uploads/a.pdf", 10)
	assert.Error(t, err)
	assert.Empty(t, pub.lastTopic)
}

func TestUpload_PublishFailureStillReturnsDocument(t *testing.T) {
	// The upload already succeeded from the caller's perspective; a queue
	// outage leaves the document PENDING and is only logged.
	pub := &testPublisher{err: errors.New("nsqd unreachable")}
	repo := &testRepo{}
	svc := NewService(repo, pub)

	doc, err := svc.Upload(context.Background(), "a.pdf", "", "/uploads/a.pdf", 10)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, doc.Status)
}

func TestReingest_CreatesFreshDocument(t *testing.T) {
	pub := &testPublisher{}
	repo := &testRepo{}
	svc := NewService(repo, pub)

	doc, err := svc.Reingest(context.Background(), "q3.pdf", "Acme", "/uploads/q3.pdf")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, config.TopicIngestTask, pub.lastTopic)
}
