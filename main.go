package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/serisow/metaminds/config"
	"github.com/serisow/metaminds/db"
	"github.com/serisow/metaminds/document_store"
	"github.com/serisow/metaminds/ingestion"
	"github.com/serisow/metaminds/logging"
	"github.com/serisow/metaminds/server"
	"github.com/serisow/metaminds/services/embedding_service"
	"github.com/serisow/metaminds/services/extract_service"
	"github.com/serisow/metaminds/services/notify_service"
	"github.com/serisow/metaminds/services/search_service"
	"github.com/serisow/metaminds/storage"
	"github.com/serisow/metaminds/vector_index"
)

func main() {
	cfg := config.Load()

	handler, err := logging.NewDailyFileHandler(cfg.LogDir, &slog.HandlerOptions{Level: slog.LevelInfo})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := slog.New(handler)

	embedder := buildEmbedder(cfg)

	var store document_store.Store
	var index vector_index.Index
	if cfg.StorageBackend == "memory" {
		logger.Warn("Using in-memory storage, documents will not survive a restart")
		store = document_store.NewMemoryStore()
		index = vector_index.NewMemoryIndex()
	} else {
		pool, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := db.Migrate(context.Background(), pool, embedder.Dimension()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		store = document_store.NewPostgresStore(pool, logger)
		pgIndex := vector_index.NewPostgresIndex(pool, logger)
		if err := pgIndex.EnsureANNIndex(context.Background()); err != nil {
			logger.Warn("Could not rebuild ANN index, queries fall back to sequential scan", slog.Any("error", err))
		}
		index = pgIndex
	}

	blobs, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	registry := extract_service.NewRegistry(logger)

	var notifier notify_service.Notifier = notify_service.NopNotifier{}
	if cfg.TwilioAccountSID != "" && cfg.AlertPhoneNumber != "" {
		notifier = notify_service.NewTwilioNotifier(
			cfg.TwilioAccountSID, cfg.TwilioAuthToken,
			cfg.TwilioFromNumber, cfg.AlertPhoneNumber, logger)
	}

	pipeline := ingestion.New(store, index, blobs, registry, embedder, notifier, logger, ingestion.Config{
		Workers:      cfg.WorkerCount,
		QueueSize:    cfg.QueueSize,
		EmbedTimeout: cfg.EmbedTimeout,
	})
	pipeline.Start()
	defer pipeline.Stop()

	search := search_service.New(embedder, index, logger)

	r := server.SetupRoutes(store, blobs, pipeline, search, logger)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, server.Config{
			Domains:      cfg.Domains,
			CertCacheDir: cfg.CertCacheDir,
			HTTPPort:     cfg.HTTPPort,
			HTTPSPort:    cfg.HTTPSPort,
		})
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func buildEmbedder(cfg config.Config) embedding_service.Embedder {
	if cfg.EmbedderType == "hashing" || cfg.OpenAIAPIKey == "" {
		return embedding_service.NewHashingEmbedder(cfg.EmbeddingDim)
	}
	return embedding_service.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}
