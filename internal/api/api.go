// Package api provides the HTTP API for the grading service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Churchillbones/clinical-note-quality/internal/auth"
	"github.com/Churchillbones/clinical-note-quality/internal/database"
	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

// Grader runs the grading pipeline for one note.
type Grader interface {
	Grade(ctx context.Context, note, transcript string, precision domain.Precision) (domain.HybridResult, error)
}

// Server is the API server.
type Server struct {
	grader       Grader
	db           *database.DB
	authVerifier *auth.Verifier
	mux          *http.ServeMux
}

// Config holds API server configuration. DB may be nil to run without
// persistence.
type Config struct {
	Grader       Grader
	DB           *database.DB
	AuthVerifier *auth.Verifier
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		grader:       cfg.Grader,
		db:           cfg.DB,
		authVerifier: cfg.AuthVerifier,
		mux:          http.NewServeMux(),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	protected := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if s.authVerifier != nil {
		authMiddleware := auth.Middleware(s.authVerifier)
		protected = func(h http.HandlerFunc) http.HandlerFunc {
			return s.withAuth(authMiddleware, h)
		}
	}

	// Public endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Protected endpoints
	s.mux.HandleFunc("POST /api/grade", protected(s.handleGrade))
	s.mux.HandleFunc("GET /api/grades", protected(s.handleListGrades))
	s.mux.HandleFunc("GET /api/grades/{gradeID}", protected(s.handleGetGrade))
}

func (s *Server) withAuth(middleware func(http.Handler) http.Handler, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware(http.HandlerFunc(handler)).ServeHTTP(w, r)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

// Close releases resources.
func (s *Server) Close() {
	if s.authVerifier != nil {
		s.authVerifier.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
