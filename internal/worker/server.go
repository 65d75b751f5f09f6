package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/dunamismax/pixelconvert/internal/queue"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	locationOutputs = "outputs"
	locationUploads = "uploads"
)

// TempSweeper removes staged uploads older than maxAge.
type TempSweeper interface {
	Sweep(maxAge time.Duration, now time.Time) (int, error)
}

type Server struct {
	logger  zerolog.Logger
	server  *asynq.Server
	outputs storage.OutputStore
	uploads TempSweeper
	metrics *metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func NewServer(
	logger zerolog.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	outputs storage.OutputStore,
	uploads TempSweeper,
) (*Server, error) {
	if outputs == nil {
		return nil, fmt.Errorf("output store is required")
	}

	s := newServer(logger, outputs, uploads)
	s.server = asynq.NewServer(
		queueCfg.RedisClientOpt(),
		asynq.Config{
			Concurrency: workerCfg.Concurrency,
			Queues: map[string]int{
				queueCfg.Name: 1,
			},
			LogLevel: asynq.InfoLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error().
					Err(err).
					Str("type", task.Type()).
					Int("retry", retried).
					Int("max_retry", maxRetry).
					Msg("task failed")
			}),
		},
	)
	return s, nil
}

func newServer(logger zerolog.Logger, outputs storage.OutputStore, uploads TempSweeper) *Server {
	return &Server{
		logger:  logger,
		outputs: outputs,
		uploads: uploads,
		metrics: newMetrics(),
		tracer:  otel.Tracer("pixelconvert/worker"),
		now:     time.Now,
	}
}

// Start begins processing in the background; Shutdown stops it.
func (s *Server) Start() error {
	return s.server.Start(s.mux())
}

func (s *Server) Shutdown() {
	s.server.Shutdown()
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeSweepOutputs, s.handleSweepOutputs)
	return mux
}

func (s *Server) handleSweepOutputs(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	status := "failed"

	payload, err := queue.ParseSweepPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.sweep_outputs", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(attribute.String("sweep.retention", payload.Retention.String()))
	defer span.End()
	defer func() {
		s.metrics.sweepDuration.Observe(time.Since(startedAt).Seconds())
		s.metrics.sweepsTotal.WithLabelValues(status).Inc()
	}()

	now := s.now()
	var errs []error

	outputsRemoved, err := s.outputs.Sweep(ctx, now.Add(-payload.Retention))
	s.metrics.removedTotal.WithLabelValues(locationOutputs).Add(float64(outputsRemoved))
	if err != nil {
		errs = append(errs, fmt.Errorf("sweep outputs: %w", err))
	}

	uploadsRemoved := 0
	if s.uploads != nil {
		uploadsRemoved, err = s.uploads.Sweep(payload.Retention, now)
		s.metrics.removedTotal.WithLabelValues(locationUploads).Add(float64(uploadsRemoved))
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep uploads: %w", err))
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.outputs_removed", outputsRemoved),
		attribute.Int("sweep.uploads_removed", uploadsRemoved),
	)

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		s.logger.Warn().
			Err(err).
			Int("outputs_removed", outputsRemoved).
			Int("uploads_removed", uploadsRemoved).
			Msg("sweep finished with errors")
		return err
	}

	status = "succeeded"
	s.metrics.lastSweep.Set(float64(now.Unix()))
	span.SetStatus(codes.Ok, "swept")
	s.logger.Info().
		Int("outputs_removed", outputsRemoved).
		Int("uploads_removed", uploadsRemoved).
		Dur("retention", payload.Retention).
		Msg("sweep finished")
	return nil
}
