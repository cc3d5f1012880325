// Package api exposes the note pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/pipeline"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/synth"
	"github.com/leonardotrapani/soapscribe/internal/templates"
)

// NoteRunner creates notes from audio or text
type NoteRunner interface {
	Run(ctx context.Context, req pipeline.AudioRequest) (*pipeline.Result, error)
	RunText(ctx context.Context, req pipeline.TextRequest) (*pipeline.Result, error)
}

// CaseAnalyzer summarizes a patient's notes
type CaseAnalyzer interface {
	Analyze(ctx context.Context, c notes.Case) (*synth.Analysis, error)
}

// Options carries request defaults and limits
type Options struct {
	MaxUploadBytes  int64
	RequestTimeout  time.Duration
	DefaultTemplate templates.Ref
	DefaultTier     provider.Tier
	DefaultLanguage string
}

// Handler contains the API handlers
type Handler struct {
	runner   NoteRunner
	analyzer CaseAnalyzer
	store    notes.Store
	registry *templates.Registry
	opts     Options
	logger   *logger.Logger
}

// NewHandler creates a new API handler. analyzer may be nil, in which case
// the analysis endpoint is not mounted.
func NewHandler(runner NoteRunner, analyzer CaseAnalyzer, store notes.Store, registry *templates.Registry, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100 << 20
	}
	if opts.DefaultTemplate.ID == "" {
		opts.DefaultTemplate = templates.Ref{ID: "soap"}
	}
	return &Handler{
		runner:   runner,
		analyzer: analyzer,
		store:    store,
		registry: registry,
		opts:     opts,
		logger:   log.Named("api"),
	}
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.GetHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/transcribe", h.Transcribe)

		r.Route("/notes", func(r chi.Router) {
			r.Post("/", h.CreateNote)
			r.Get("/", h.ListNotes)
			r.Get("/{id}", h.GetNote)
		})

		r.Route("/patients/{key}", func(r chi.Router) {
			r.Get("/notes", h.GetPatientNotes)
			if h.analyzer != nil {
				r.Post("/analysis", h.AnalyzePatient)
			}
		})

		r.Get("/templates", h.ListTemplates)
		r.Get("/templates/{ref}", h.GetTemplate)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound(r.URL.Path))
	})

	return r
}

// requestLogger logs method, path, status and latency. Bodies are never logged.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// withTimeout bounds a pipeline or analysis call by server.request_timeout
func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.opts.RequestTimeout)
}
