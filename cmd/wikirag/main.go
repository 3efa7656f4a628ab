package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/wikirag/internal/api"
	"github.com/liliang-cn/wikirag/internal/config"
	"github.com/liliang-cn/wikirag/internal/embeddings"
	"github.com/liliang-cn/wikirag/internal/llm"
	"github.com/liliang-cn/wikirag/internal/repository"
	"github.com/liliang-cn/wikirag/internal/service"
	"github.com/liliang-cn/wikirag/internal/vectorstore"
	"github.com/liliang-cn/wikirag/internal/vectorstore/memory"
	"github.com/liliang-cn/wikirag/internal/vectorstore/qdrant"
	"github.com/liliang-cn/wikirag/internal/wikipedia"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database (sessions and messages)
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	sessionRepo := repository.NewSessionRepository(db)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize embedder", zap.Error(err))
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize llm client", zap.Error(err))
	}

	store, err := newVectorStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize vector store", zap.Error(err))
	}
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.Init(initCtx, embedder.Dimension()); err != nil {
		cancelInit()
		logger.Fatal("Failed to initialize vector collection", zap.Error(err))
	}
	cancelInit()

	newFetcher := func(language string) service.Fetcher {
		return wikipedia.NewClient(wikipedia.Config{
			Language: language,
			Timeout:  time.Duration(cfg.Wikipedia.TimeoutSeconds) * time.Second,
		})
	}

	// Initialize services
	ingestService := service.NewIngestService(cfg, newFetcher, embedder, store, logger)
	chatService := service.NewChatService(cfg, embedder, store, llmClient, sessionRepo, logger)
	knowledgeService := service.NewKnowledgeService(store, logger)

	// Setup router
	router := api.SetupRouter(chatService, ingestService, knowledgeService, api.RouterConfig{
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // ingestion and generation are slow
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting WikiRAG server",
			zap.String("address", cfg.Address()),
			zap.String("vector_provider", cfg.Vector.Provider),
			zap.String("llm_provider", cfg.LLM.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newVectorStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Vector.Provider {
	case "qdrant":
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.Vector.URL,
			APIKey:     cfg.Vector.APIKey,
			Collection: cfg.Vector.Collection,
		}), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector provider: %s", cfg.Vector.Provider)
	}
}
