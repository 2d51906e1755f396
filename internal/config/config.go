package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"transcriptrag"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"transcriptrag"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	ExtractorURL string `envconfig:"EXTRACTOR_URL" default:"http://extractor:8000"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// Chunking
	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"800"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"150"`

	// Retrieval
	RetrievalTopK       int     `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.7"`

	EnableAPI            bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIngestWorker   bool   `envconfig:"ENABLE_INGEST_WORKER" default:"true"`
	IngestionConcurrency int    `envconfig:"INGESTION_CONCURRENCY" default:"4"`
	MigrationPath        string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may also come from the shell, so a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrMissingRequired)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be non-negative and smaller than CHUNK_SIZE", ErrMissingRequired)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: SIMILARITY_THRESHOLD must be within [0,1]", ErrMissingRequired)
	}
	return nil
}
