package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"transcriptrag/features/document"
	"transcriptrag/features/job"
	"transcriptrag/features/question"
	"transcriptrag/features/stats"
	"transcriptrag/internal/config"
	"transcriptrag/internal/middleware"
	"transcriptrag/internal/retrieval"
	"transcriptrag/internal/text"
	"transcriptrag/internal/worker"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is everything the app needs from the vector database: writes
// from the worker, similarity reads from retrieval, counting for stats, and
// schema management at bootstrap.
type VectorStore interface {
	StoreChunk(ctx context.Context, chunk worker.Chunk) error
	Query(ctx context.Context, vector []float32, limit int, minSimilarity float64, documentID, company string) ([]retrieval.Match, error)
	CountChunks(ctx context.Context) (int, error)
	EnsureSchema(ctx context.Context) error
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	IngestConsumer  *worker.IngestConsumer
	port            int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	embedder Embedder,
	generator question.Generator,
	extractor worker.Extractor,
) (*App, error) {

	// Feature: Document
	documentRepo := document.NewPostgresRepo(db)
	documentService := document.NewService(documentRepo, taskPub)
	documentHandler := document.NewHandler(documentService, cfg.UploadDir, cfg.MaxUploadSizeMB)

	// Feature: Job
	jobRepo := job.NewPostgresRepo(db)
	jobService := job.NewService(jobRepo, documentService)
	jobHandler := job.NewHandler(jobService)

	// Feature: Stats
	statsHandler := stats.NewHandler(documentRepo, vecStore, jobRepo)

	// Feature: Question (Retrieval + Composition)
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	var retrievalLog retrieval.QueryLogger
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		retrievalLog = retrieval.NewQueryLoggerWriter(os.Stdout)
	} else {
		retrievalLog = queryLogger
	}

	retrievalService := retrieval.NewService(embedder, vecStore, retrievalLog, cfg.RetrievalTopK, cfg.SimilarityThreshold)
	questionHandler := question.NewHandler(question.NewService(retrievalService, generator))

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /documents/upload", middleware.CorrelationID(enableCORS(documentHandler.Upload)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(documentHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(documentHandler.Get)))
	mux.Handle("GET /documents/{id}/status", middleware.CorrelationID(enableCORS(documentHandler.GetStatus)))
	mux.Handle("GET /documents/{id}/chunks", middleware.CorrelationID(enableCORS(documentHandler.GetChunks)))

	mux.Handle("POST /questions/ask", middleware.CorrelationID(enableCORS(questionHandler.Ask)))

	mux.Handle("GET /jobs/failed", middleware.CorrelationID(enableCORS(jobHandler.ListFailed)))
	mux.Handle("POST /jobs/{id}/retry", middleware.CorrelationID(enableCORS(jobHandler.Retry)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.Get)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	// Worker (Ingest Consumer) Setup
	chunker := text.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	failures := worker.NewJobRecorder(jobRepo)
	ingestConsumer := worker.NewIngestConsumer(extractor, embedder, vecStore, documentRepo, failures, chunker)

	return &App{
		Handler:         mux,
		DocumentService: documentService,
		IngestConsumer:  ingestConsumer,
		port:            cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
