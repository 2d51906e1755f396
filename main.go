package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"transcriptrag/internal/adapter/extractor"
	"transcriptrag/internal/adapter/gemini"
	"transcriptrag/internal/app"
	"transcriptrag/internal/config"
	"transcriptrag/internal/logger"
)

func main() {
	baseHandler := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewContextHandler(baseHandler)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
	if err != nil {
		slog.Error("failed to create gemini embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		slog.Error("failed to create gemini generator", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	extractorClient := extractor.NewClient(cfg.ExtractorURL)

	application, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, embedder, generator, extractorClient)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if cfg.EnableIngestWorker {
		consumer, err := nsq.NewConsumer(config.TopicIngestTask, config.ChannelIngest, nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create NSQ consumer", "error", err)
			os.Exit(1)
		}
		consumer.AddConcurrentHandlers(application.IngestConsumer, cfg.IngestionConcurrency)

		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "error", err)
			os.Exit(1)
		}
		slog.Info("ingest consumer connected", "concurrency", cfg.IngestionConcurrency)

		defer func() {
			consumer.Stop()
			<-consumer.StopChan
		}()
	}

	if !cfg.EnableAPI {
		slog.Info("api disabled, running worker only")
		<-ctx.Done()
		return
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
