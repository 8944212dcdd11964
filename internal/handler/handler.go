package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pavelanni/quizforge/internal/generate"
	appI18n "github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/scoring"
	"github.com/pavelanni/quizforge/internal/session"
	"github.com/pavelanni/quizforge/internal/store"
)

// Config holds the HTTP-facing settings.
type Config struct {
	PartialMatching bool
	CORSOrigins     []string
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	sessions  *session.Registry
	gen       *generate.Client
	store     *store.Store
	scorer    scoring.Scorer
	config    Config
	now       func() time.Time
	maxUpload int64

	// Generations outlive the request that started them.
	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// New creates a new Handler. The store may be nil, which disables
// saving preferences.
func New(reg *session.Registry, gen *generate.Client, st *store.Store, cfg Config) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		sessions:  reg,
		gen:       gen,
		store:     st,
		scorer:    scoring.New(scoring.WithPartialMatching(cfg.PartialMatching)),
		config:    cfg,
		now:       time.Now,
		maxUpload: maxUploadBytes,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close cancels in-flight generations and waits for them to finish.
func (h *Handler) Close() {
	h.cancel()
	h.pending.Wait()
}

// Wait blocks until every in-flight generation has been applied.
func (h *Handler) Wait() {
	h.pending.Wait()
}

// Router returns the complete HTTP handler with middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(h.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
	}
	r.Use(appI18n.Middleware)
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Post("/files", h.handleAddFiles)
			r.Delete("/files", h.handleClearFiles)
			r.Put("/options", h.handleConfigure)
			r.Post("/generate", h.handleGenerate)
			r.Put("/answers/{questionID}", h.handleAnswer)
			r.Put("/answers/{questionID}/pairs/{pair}", h.handleAnswerPair)
			r.Post("/next", h.handleNext)
			r.Post("/prev", h.handlePrev)
			r.Post("/goto/{index}", h.handleGoto)
			r.Post("/finish", h.handleFinish)
			r.Post("/restart", h.handleRestart)
		})
		r.Get("/preferences", h.handleGetPreferences)
		r.Put("/preferences", h.handlePutPreferences)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "sessions": h.sessions.Len()}
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			slog.Error("database health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "error": "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}
