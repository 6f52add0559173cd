// Package main is the entry point for the sequor API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sequor/internal/config"
	"sequor/internal/domain/document"
	"sequor/internal/domain/journal"
	"sequor/internal/domain/link"
	"sequor/internal/domain/sequence"
	"sequor/internal/domain/stamping"
	v1 "sequor/internal/infrastructure/http/v1"
	"sequor/internal/infrastructure/storage"
	"sequor/internal/infrastructure/storage/postgres"
	"sequor/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting sequor server", "backend", cfg.Storage.Backend)

	// --- State backend ---
	kv, journalRepo, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open state backend", "error", err)
	}
	defer kv.Close()

	// --- Sequence store and schema migration ---
	store := sequence.NewStore(kv)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalw("schema migration failed", "error", err)
	}

	// --- Document model and services ---
	tree := document.NewMemoryTree()
	links := link.NewRegistry(tree)

	journalSvc, err := journal.NewService(journalRepo)
	if err != nil {
		log.Fatalw("failed to initialize journal", "error", err)
	}

	stamper := stamping.NewService(store, links, tree, document.NoopFontLoader{}, journalSvc)
	analyzer := stamping.NewAnalyzer(store, links, tree)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Store:      store,
		Tree:       tree,
		Links:      links,
		Stamper:    stamper,
		Analyzer:   analyzer,
		Journal:    journalSvc,
		Logger:     log,
		AuthSecret: cfg.Auth.JWTSecret,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// openStorage builds the KV backend plus a matching journal repository.
// Postgres shares one pool between the two; every other backend pairs with
// the in-memory journal.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, journal.Repository, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), journal.NewMemoryRepository(), nil

	case config.BackendFile:
		kv, err := storage.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, journal.NewMemoryRepository(), nil

	case config.BackendSQLite:
		kv, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, journal.NewMemoryRepository(), nil

	case config.BackendPostgres:
		kv, err := postgres.NewKVStore(ctx, cfg.Storage.DSN, cfg.Storage.DocumentID)
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgres.NewJournalRepo(ctx, kv.Pool(), cfg.Storage.DocumentID)
		if err != nil {
			kv.Close()
			return nil, nil, err
		}
		return kv, repo, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
