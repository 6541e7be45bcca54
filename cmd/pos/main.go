package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/backend"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/cli"
	apphttp "github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/http"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/services"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("text", "info"))
	logger := cli.SetupLogger(cfg.LogFormat, cfg.LogLevel)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	flusher := worker.NewFlusher(res.Backend, worker.FlusherConfig{
		FlushInterval: cfg.FlushInterval,
		BatchSize:     cfg.FlushBatchSize,
		BufferSize:    cfg.FlushBuffer,
	}, logger)

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithLocation(cfg.Location()),
		services.WithConcurrentRegisters(cfg.AllowConcurrentRegisters),
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	svc := services.NewPOSService(flusher, opts...)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = svc.Load(loadCtx, res.Backend)
	loadCancel()
	if err != nil {
		logger.Error("Failed to load persisted state", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Backend:        cfg.DataBackend,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := flusher.Stop(shutdownCtx); err != nil {
			logger.Error("Flusher did not drain", log.FieldError, err, "pending", flusher.Pending())
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// The flusher outlives ctx so writes from in-flight requests drain on Stop.
	if err := flusher.Start(context.Background()); err != nil {
		logger.Error("Failed to start flusher", log.FieldError, err)
		os.Exit(1)
	}
	go svc.WatchFlushErrors(ctx, flusher.Errors())

	logger.Info("Starting POS server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"replication", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
