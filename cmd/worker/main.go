package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/dunamismax/pixelconvert/internal/logging"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/queue"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/dunamismax/pixelconvert/internal/telemetry"
	"github.com/dunamismax/pixelconvert/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	outputs, err := storage.FromConfig(ctx, cfg.Output, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("init output store")
	}
	uploads, err := pipeline.NewDirTempStore(cfg.Converter.TempDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("init upload dir")
	}

	logger.Info().
		Int("concurrency", cfg.Worker.Concurrency).
		Str("queue", cfg.Queue.Name).
		Str("redis", cfg.Queue.RedisAddr).
		Str("sweep_schedule", cfg.Worker.SweepSchedule).
		Dur("retention", cfg.Output.Retention).
		Msg("starting worker")

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, outputs, uploads)
	if err != nil {
		logger.Fatal().Err(err).Msg("init worker")
	}

	scheduler := queue.NewScheduler(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	if _, err := scheduler.RegisterSweep(cfg.Worker.SweepSchedule, cfg.Output.Retention); err != nil {
		logger.Fatal().Err(err).Msg("register sweep schedule")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	if _, err := queueClient.EnqueueSweep(ctx, cfg.Output.Retention); err != nil {
		logger.Warn().Err(err).Msg("initial sweep not enqueued")
	}
	if err := queueClient.Close(); err != nil {
		logger.Warn().Err(err).Msg("queue client close error")
	}

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           srv.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Worker.MetricsAddr).Msg("metrics listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
