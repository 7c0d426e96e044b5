package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpadapter "github.com/kirillkom/graph-resolver/internal/adapters/mcp"
	"github.com/kirillkom/graph-resolver/internal/bootstrap"
	"github.com/kirillkom/graph-resolver/internal/config"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// Stdout carries the MCP protocol; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "mcp")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Close(closeCtx)
	}()

	server := mcpadapter.NewServer(app.ResolveUC, version)
	if err := server.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
