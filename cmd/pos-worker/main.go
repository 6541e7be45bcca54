package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/amqp"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/cli"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/sheets"
	gsheet "github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/sheets/google"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage/sqlite"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("text", "info"))
	logger := cli.SetupLogger(cfg.LogFormat, cfg.LogLevel).WithComponent(log.ComponentWorker)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting pos-worker")

	replica, err := sqlite.Open(cfg.ReplicaDBPath)
	if err != nil {
		logger.Error("Failed to open replica database", log.FieldError, err, "path", cfg.ReplicaDBPath)
		os.Exit(1)
	}
	defer replica.Close()

	// Closings stay pending in the replica when no spreadsheet is configured.
	var exporter sheets.ClosingReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleClosingsSheet, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	replicaWorker := worker.NewReplicaWorker(replica, exporter, cfg.ExportBatchSize, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Export whatever was left pending by a previous run.
	if n, err := replicaWorker.ProcessPendingClosings(ctx); err != nil {
		logger.Error("Startup export check failed", log.FieldError, err)
	} else if n > 0 {
		logger.Info("Startup export check done", "exported", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, replicaWorker.HandleEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := replicaWorker.ProcessPendingClosings(gctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Periodic export failed", log.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
