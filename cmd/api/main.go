package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dunamismax/pixelconvert/internal/api"
	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/dunamismax/pixelconvert/internal/history"
	"github.com/dunamismax/pixelconvert/internal/logging"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/ratelimit"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/dunamismax/pixelconvert/internal/store"
	"github.com/dunamismax/pixelconvert/internal/telemetry"
	"github.com/dunamismax/pixelconvert/internal/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, "api")

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

	if err := pipeline.Startup(); err != nil {
		logger.Fatal().Err(err).Msg("start image runtime")
	}
	defer pipeline.Shutdown()

	capability := pipeline.ResolveHeicCapability(cfg.Converter.HeicDecoder)
	if capability == pipeline.HeicNone {
		logger.Warn().Str("preference", cfg.Converter.HeicDecoder).Msg("HEIC support not available")
	} else {
		logger.Info().Str("capability", capability.String()).Str("method", capability.Method()).Msg("HEIC support enabled")
	}

	temp, err := pipeline.NewDirTempStore(cfg.Converter.TempDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("init temp store")
	}

	outputs, err := storage.FromConfig(ctx, cfg.Output, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("init output store")
	}

	historyStore, closeHistory, err := store.FromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("init history store")
	}
	defer func() {
		if err := closeHistory(); err != nil {
			logger.Warn().Err(err).Msg("history store close failed")
		}
	}()

	metrics := api.NewMetrics()
	converter := pipeline.NewConverter(
		pipeline.NewDecoder(capability),
		temp,
		pipeline.WithMaxFileBytes(cfg.Converter.MaxFileBytes),
		pipeline.WithWorkers(cfg.Converter.Workers),
		pipeline.WithLogger(logger.With().Str("module", "pipeline").Logger()),
		pipeline.WithObserver(metrics.ObserveItem),
	)

	deps := api.Deps{
		Logger:     logger,
		Converter:  converter,
		Capability: capability,
		History:    history.NewRecorder(historyStore),
		Outputs:    outputs,
		Metrics:    metrics,
	}

	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(cfg.Queue.RedisOptions())
		defer redisClient.Close()

		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window)
		if err != nil {
			logger.Fatal().Err(err).Msg("init rate limiter")
		}
		deps.RateLimiter = limiter
	}

	if notifier := webhook.NewNotifier(webhook.NewClient(cfg.Webhook), cfg.Webhook.URL); notifier.Enabled() {
		deps.Notifier = notifier
	}

	app := api.NewServer(cfg, deps)
	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.API.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	logger.Info().Msg("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
	}
	app.Wait()
}
