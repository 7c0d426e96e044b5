package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/graph-resolver/internal/bootstrap"
	"github.com/kirillkom/graph-resolver/internal/config"
	"github.com/kirillkom/graph-resolver/internal/importer"
	"github.com/kirillkom/graph-resolver/internal/observability/logging"
)

func main() {
	var (
		file  = flag.String("file", "", "path to xlsx workbook with a name/tags/entity/id header row")
		sheet = flag.String("sheet", "", "sheet name (defaults to the first sheet)")
		scope = flag.String("scope", "", "scope to stamp on imported nodes")
	)
	flag.Parse()
	if *file == "" {
		log.Fatal("usage: importer -file nodes.xlsx [-sheet Sheet1] [-scope kb1]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("importer", cfg.LogLevel)
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

	summary, err := importer.New(app.Store, app.Queue, logger).ImportFile(ctx, *file, *sheet, *scope)
	if err != nil {
		log.Fatalf("import error: %v", err)
	}
	logger.Info("import_done", "imported", summary.Imported, "skipped", summary.Skipped)
}
