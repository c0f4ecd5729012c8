package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lazypower/spacetime/internal/auth"
	"github.com/lazypower/spacetime/internal/memory"
	"github.com/lazypower/spacetime/internal/store"
	"github.com/lazypower/spacetime/internal/uploads"
)

// Options tunes a Server.
type Options struct {
	Version        string
	AllowedOrigins []string
	PublicURL      string // prefix of fileUrl values returned by /upload
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server is the spacetime HTTP API server.
type Server struct {
	db       *store.DB
	memories *memory.Service
	files    *uploads.Disk
	verifier auth.Verifier
	opts     Options
	logger   *slog.Logger
	router   chi.Router
	started  time.Time
}

// New creates a new Server.
func New(db *store.DB, memories *memory.Service, files *uploads.Disk, verifier auth.Verifier, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		db:       db,
		memories: memories,
		files:    files,
		verifier: verifier,
		opts:     opts,
		logger:   logger,
		started:  time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/uploads/*", s.handleServeUpload)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier))

		r.Get("/memories", s.handleListMemories)
		r.Post("/memories", s.handleCreateMemory)
		r.Get("/memories/{id}", s.handleGetMemory)
		r.Put("/memories/{id}", s.handleUpdateMemory)
		r.Delete("/memories/{id}", s.handleDeleteMemory)

		r.Post("/upload", s.handleUpload)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.opts.Version,
		"uptime":    time.Since(s.started).Seconds(),
		"db":        dbOK,
		"db_driver": s.db.Driver,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
