package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/velocity/internal/auth"
	"github.com/baxromumarov/velocity/internal/core"
	"github.com/baxromumarov/velocity/internal/roadmap"
	"github.com/baxromumarov/velocity/internal/trends"
)

type TrendsSource interface {
	Get(ctx context.Context) (*trends.MarketTrends, error)
}

type Deps struct {
	Profiles  *core.ProfileService
	Dashboard *core.DashboardService
	Trends    TrendsSource
	Roadmaps  *roadmap.Service
	Verifier  auth.Verifier

	AllowedOrigins []string
	// StaticDir holds the built frontend. Skipped when empty or missing.
	StaticDir string
	Logger    *slog.Logger
}

type Server struct {
	router    *chi.Mux
	profiles  *core.ProfileService
	dashboard *core.DashboardService
	trends    TrendsSource
	roadmaps  *roadmap.Service
	verifier  auth.Verifier
	logger    *slog.Logger
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:    chi.NewRouter(),
		profiles:  deps.Profiles,
		dashboard: deps.Dashboard,
		trends:    deps.Trends,
		roadmaps:  deps.Roadmaps,
		verifier:  deps.Verifier,
		logger:    logger,
	}

	s.setupRoutes(deps.AllowedOrigins, deps.StaticDir)
	return s
}

func (s *Server) setupRoutes(origins []string, staticDir string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !contains(origins, "*"),
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleAPIHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/trends", s.handleTrends)
		r.Get("/roles", s.handleRoles)
		r.Get("/roadmap", s.handleRoadmap)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.verifier))
			r.Get("/users/me", s.handleMe)
			r.Post("/users/me/insights", s.handleRequestInsights)
			r.Post("/quiz/submit", s.handleSubmitQuiz)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/roadmap/me", s.handleMyRoadmap)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondMessage(w, http.StatusNotFound, "Not found")
		})
	})

	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			FileServer(s.router, "/", http.Dir(staticDir))
		} else {
			s.logger.Warn("static dir not found, frontend not served", "dir", staticDir)
		}
	}
}

// FileServer serves root under path. Requests for files that do not exist
// get index.html so client-side routes load.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))

		if !exists(root, strings.TrimPrefix(r.URL.Path, pathPrefix)) {
			r = r.Clone(r.Context())
			r.URL.Path = pathPrefix + "/"
		}
		fs.ServeHTTP(w, r)
	})
}

func exists(root http.FileSystem, name string) bool {
	f, err := root.Open(path.Clean("/" + name))
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "Velocity backend running"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError writes {"error": ...}, the shape the trends and roadmap
// clients read.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondMessage writes {"message": ...}, the shape the profile pages read.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
