package config

const (
	// TopicIngestTask is the NSQ topic for document ingestion tasks.
	TopicIngestTask = "ingest.task"

	// ChannelIngest is the consumer channel the ingestion worker pool reads from.
	ChannelIngest = "ingestion-worker"
)
