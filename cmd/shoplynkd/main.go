// Command shoplynkd runs the tenant assistant provisioning daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/indran-jediteck/shop-lynk-ai/internal/agent"
	"github.com/indran-jediteck/shop-lynk-ai/internal/assistant"
	"github.com/indran-jediteck/shop-lynk-ai/internal/config"
	"github.com/indran-jediteck/shop-lynk-ai/internal/embeddings"
	"github.com/indran-jediteck/shop-lynk-ai/internal/ingest"
	"github.com/indran-jediteck/shop-lynk-ai/internal/knowledge"
	"github.com/indran-jediteck/shop-lynk-ai/internal/logging"
	"github.com/indran-jediteck/shop-lynk-ai/internal/server"
	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
	"github.com/indran-jediteck/shop-lynk-ai/internal/store"
	"github.com/indran-jediteck/shop-lynk-ai/internal/telemetry"
	"github.com/indran-jediteck/shop-lynk-ai/internal/vectorstore"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "shoplynkd",
		Short: "Per-store AI sales assistant provisioning daemon",
		Long: `shoplynkd provisions AI sales assistants for Shopify stores: it extracts
store knowledge, embeds it into a tenant-scoped vector index, and manages
the assistant lifecycle (create, pause, delete).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/shoplynk/config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shoplynkd %s (%s)\n", version, commit)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting shoplynkd",
		zap.String("version", version),
		zap.String("vectorstore", cfg.VectorStore.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	repo, err := store.NewMongoRepository(ctx, store.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to mongodb: %w", err)
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			logger.Warn("mongodb disconnect failed", zap.Error(err))
		}
	}()

	index, err := vectorstore.New(vectorstore.Config{
		Provider: cfg.VectorStore.Provider,
		Chromem: vectorstore.ChromemConfig{
			Path:           cfg.VectorStore.Path,
			CollectionName: cfg.VectorStore.Collection,
		},
		Qdrant: vectorstore.QdrantConfig{
			Host:           cfg.VectorStore.QdrantHost,
			Port:           cfg.VectorStore.QdrantPort,
			CollectionName: cfg.VectorStore.Collection,
			VectorSize:     embeddings.VectorSize,
			UseTLS:         cfg.VectorStore.QdrantTLS,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Warn("vector index close failed", zap.Error(err))
		}
	}()

	embedder, err := embeddings.NewService(embeddings.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.EmbeddingModel,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}

	provisioner, err := assistant.NewProvisioner(assistant.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.AssistantModel,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating assistant provisioner: %w", err)
	}

	shopClient := shopify.NewClient(shopify.Config{
		APIVersion:        cfg.Shopify.APIVersion,
		RequestsPerSecond: cfg.Shopify.RequestsPerSecond,
	}, logger)
	extractor := knowledge.NewExtractor(shopClient, logger)
	contextEmbedder := ingest.NewContextEmbedder(embedder, index, logger)

	manager := agent.NewManager(extractor, contextEmbedder, provisioner, repo, index, logger)

	srv, err := server.NewServer(manager, repo, logger, &server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("shoplynkd stopped")
	return nil
}
