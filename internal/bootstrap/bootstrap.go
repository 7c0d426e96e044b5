package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/graph-resolver/internal/config"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
	"github.com/kirillkom/graph-resolver/internal/core/usecase"
	"github.com/kirillkom/graph-resolver/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/graph-resolver/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/graph-resolver/internal/infrastructure/graph/postgres"
	"github.com/kirillkom/graph-resolver/internal/infrastructure/queue/nats"
	"github.com/kirillkom/graph-resolver/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Store    ports.GraphStore
	Queue    ports.NodeEventQueue
	Embedder ports.Embedder

	ResolveUC *usecase.ResolveUseCase
	IndexUC   *usecase.IndexNodeUseCase

	closeFn func(context.Context)
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	embedder := ollama.NewWithExecutor(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)

	store, err := openStore(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, err
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	resolveUC := usecase.NewResolveUseCase(store, store, store, logger)
	indexUC := usecase.NewIndexNodeUseCase(store, embedder)

	return &App{
		Config: cfg,

		Store:    store,
		Queue:    queue,
		Embedder: embedder,

		ResolveUC: resolveUC,
		IndexUC:   indexUC,

		closeFn: func(closeCtx context.Context) {
			queue.Close()
			_ = store.Close(closeCtx)
		},
	}, nil
}

func openStore(ctx context.Context, cfg config.Config, embedder ports.Embedder, logger *slog.Logger) (ports.GraphStore, error) {
	switch cfg.GraphBackend {
	case "neo4j":
		store, err := neo4j.Open(ctx, neo4j.Config{
			URI:          cfg.Neo4jURI,
			Username:     cfg.Neo4jUser,
			Password:     cfg.Neo4jPassword,
			Database:     cfg.Neo4jDatabase,
			EmbeddingDim: cfg.EmbeddingDim,
		}, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("open neo4j: %w", err)
		}
		return store, nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store, err := postgres.New(ctx, db, cfg.EmbeddingDim, embedder, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported graph backend %q", cfg.GraphBackend)
	}
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
