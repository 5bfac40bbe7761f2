// Package server exposes the import pipeline over HTTP: upload and
// paste intake, job status, draft preview and editing, commit and
// rollback, and the audit trail.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/planlift/internal/audit"
	"github.com/claude/planlift/internal/commit"
	"github.com/claude/planlift/internal/observability"
	"github.com/claude/planlift/internal/storage"
)

// Config holds the handler-facing knobs.
type Config struct {
	APIKey         string
	MaxUploadBytes int64
	Retention      time.Duration
	ImportDisabled bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	commits *commit.Service
	trail   *audit.Trail
	metrics *observability.Metrics
	cfg     Config
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, commits *commit.Service, trail *audit.Trail, m *observability.Metrics, cfg Config, log *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 14 * 24 * time.Hour
	}
	s := &Server{
		db:      db,
		commits: commits,
		trail:   trail,
		metrics: m,
		cfg:     cfg,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.cfg.APIKey))
		r.Use(TrainerID)

		r.Post("/imports", s.handleCreateImport)
		r.Post("/imports/paste", s.handlePasteImport)
		r.Get("/imports", s.handleListImports)
		r.Get("/imports/{id}", s.handleGetImport)
		r.Get("/imports/{id}/draft", s.handleGetDraft)
		r.Patch("/imports/{id}/draft", s.handlePatchDraft)
		r.Post("/imports/{id}/commit", s.handleCommit)
		r.Post("/imports/{id}/rollback", s.handleRollback)
		r.Get("/imports/{id}/audit", s.handleAuditTrail)

		r.Get("/clients/{clientID}/routine", s.handleGetRoutine)
		r.Get("/clients/{clientID}/backups", s.handleListBackups)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
