package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JakeStanger/rust-bindocs/internal/config"
	"github.com/JakeStanger/rust-bindocs/internal/pipeline"
	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/resolver"
)

// maxBodyBytes caps template and document uploads.
const maxBodyBytes = 10 << 20

// Server is the HTTP preview server for bindoc.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	resolver     *resolver.Resolver
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. The resolver must have
// finished resolving before requests are served.
func NewServer(orch *pipeline.Orchestrator, res *resolver.Resolver, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		resolver:     res,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/catalogue", s.handleCatalogue)
		r.Get("/api/declarations/*", s.handleDeclaration)

		r.Post("/api/render", s.handleRender)
		r.Post("/api/outline", s.handleOutline)

		r.Post("/api/jobs", s.handleSubmitJobs)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) typeStyle() render.TypeStyle {
	if s.cfg.SimplifiedTypes {
		return render.TypesSimplified
	}
	return render.TypesFull
}

// format reads the format query parameter, falling back to the configured one.
func (s *Server) format(r *http.Request) (render.Format, error) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = s.cfg.Format
	}
	return render.ParseFormat(name)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
