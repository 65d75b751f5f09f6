package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/history"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/dunamismax/pixelconvert/internal/webhook"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type batchConverter interface {
	MaxFileBytes() int64
	ConvertBatch(ctx context.Context, uploads []pipeline.Upload, target domain.OutputFormat) (pipeline.BatchResult, error)
}

type conversionNotifier interface {
	ConversionCompleted(ctx context.Context, event webhook.ConversionEvent) error
}

// Deps are the collaborators of the HTTP service. Converter, History and
// Outputs are required; the rest are optional.
type Deps struct {
	Logger      zerolog.Logger
	Converter   batchConverter
	Capability  pipeline.HeicCapability
	History     *history.Recorder
	Outputs     storage.OutputStore
	RateLimiter RateLimiter
	Notifier    conversionNotifier
	Metrics     *Metrics
	Tracer      trace.Tracer
}

type Server struct {
	logger          zerolog.Logger
	converter       batchConverter
	capability      pipeline.HeicCapability
	history         *history.Recorder
	outputs         storage.OutputStore
	rateLimiter     RateLimiter
	notifier        conversionNotifier
	metrics         *Metrics
	tracer          trace.Tracer
	session         config.SessionConfig
	maxRequestBytes int64
	notifyTimeout   time.Duration
	now             func() time.Time
	background      sync.WaitGroup
	router          chi.Router
}

func NewServer(cfg config.Config, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("pixelconvert/api")
	}

	notifyTimeout := cfg.Webhook.Timeout * time.Duration(max(1, cfg.Webhook.MaxAttempts))
	if notifyTimeout <= 0 {
		notifyTimeout = 30 * time.Second
	}

	s := &Server{
		logger:          deps.Logger,
		converter:       deps.Converter,
		capability:      deps.Capability,
		history:         deps.History,
		outputs:         deps.Outputs,
		rateLimiter:     deps.RateLimiter,
		notifier:        deps.Notifier,
		metrics:         deps.Metrics,
		tracer:          deps.Tracer,
		session:         cfg.Session,
		maxRequestBytes: cfg.API.MaxRequestBytes,
		notifyTimeout:   notifyTimeout,
		now:             time.Now,
	}
	if s.session.CookieName == "" {
		s.session.CookieName = defaultSessionCookie
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Wait blocks until background webhook deliveries finish.
func (s *Server) Wait() {
	s.background.Wait()
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.withRecovery)
	r.Use(s.withTracing)
	r.Use(s.metrics.withHTTPMetrics)
	r.Use(s.withRequestLogging)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/capabilities", s.handleCapabilities)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.With(s.withRateLimit).Post("/convert", s.handleConvert)
		r.Get("/download/{filename}", s.handleDownload)
		r.Get("/history", s.handleHistory)
		r.Post("/clear-history", s.handleClearHistory)
	})

	s.router = r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}
