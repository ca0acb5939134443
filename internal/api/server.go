package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/filmshelf/filmshelf/internal/config"
	"github.com/filmshelf/filmshelf/internal/db"
	"github.com/filmshelf/filmshelf/internal/jobs"
	"github.com/filmshelf/filmshelf/internal/library"
	"github.com/filmshelf/filmshelf/internal/metadata"
	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/filmshelf/filmshelf/internal/resolver"
)

type Server struct {
	config       *config.Config
	db           *db.DB
	fileRepo     *repository.FileRepository
	movieRepo    *repository.MovieRepository
	posterRepo   *repository.PosterRepository
	statusRepo   *repository.StatusRepository
	categoryRepo *repository.CategoryRepository
	settingsRepo *repository.SettingsRepository
	state        *library.State
	search       metadata.SearchProvider
	resolver     *resolver.Resolver
	jobQueue     *jobs.Queue
	wsHub        *WSHub
	router       *http.ServeMux
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(cfg *config.Config, database *db.DB, state *library.State,
	search metadata.SearchProvider, res *resolver.Resolver, jobQueue *jobs.Queue) *Server {
	s := &Server{
		config:       cfg,
		db:           database,
		fileRepo:     repository.NewFileRepository(database.DB),
		movieRepo:    repository.NewMovieRepository(database.DB),
		posterRepo:   repository.NewPosterRepository(database.DB),
		statusRepo:   repository.NewStatusRepository(database.DB),
		categoryRepo: repository.NewCategoryRepository(database.DB),
		settingsRepo: repository.NewSettingsRepository(database.DB),
		state:        state,
		search:       search,
		resolver:     res,
		jobQueue:     jobQueue,
		wsHub:        NewWSHub(),
		router:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) setupRoutes() {
	// Static UI
	fs := http.FileServer(http.Dir("web"))
	s.router.Handle("/", fs)

	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)

	// WebSocket
	s.router.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	// Library
	s.router.HandleFunc("POST /api/v1/library/resolve", s.handleResolve)
	s.router.HandleFunc("POST /api/v1/library/identify", s.handleIdentify)
	s.router.HandleFunc("GET /api/v1/library/movies", s.handleListMovies)
	s.router.HandleFunc("GET /api/v1/library/filters", s.handleLibraryFilters)
	s.router.HandleFunc("DELETE /api/v1/library", s.handleClearLibrary)

	// Movies
	s.router.HandleFunc("GET /api/v1/movies/{id}", s.handleGetMovie)
	s.router.HandleFunc("DELETE /api/v1/movies/{id}", s.handleDeleteMovie)
	s.router.HandleFunc("GET /api/v1/movies/{id}/poster", s.handleGetPoster)
	s.router.HandleFunc("POST /api/v1/movies/{id}/favorite", s.handleToggleFavorite)
	s.router.HandleFunc("POST /api/v1/movies/{id}/watched", s.handleToggleWatched)

	// Categories
	s.router.HandleFunc("GET /api/v1/categories", s.handleListCategories)
	s.router.HandleFunc("POST /api/v1/categories", s.handleCreateCategory)
	s.router.HandleFunc("PUT /api/v1/categories/{id}", s.handleRenameCategory)
	s.router.HandleFunc("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)
	s.router.HandleFunc("POST /api/v1/movies/{id}/categories/{categoryId}", s.handleLinkCategory)
	s.router.HandleFunc("DELETE /api/v1/movies/{id}/categories/{categoryId}", s.handleUnlinkCategory)

	// Provider search passthroughs
	s.router.HandleFunc("GET /api/v1/search", s.handleSearch)
	s.router.HandleFunc("GET /api/v1/search/{id}/imdb", s.handleResolveIMDBID)
	s.router.HandleFunc("GET /api/v1/search/{id}/trailer", s.handleTrailer)

	// Settings
	s.router.HandleFunc("GET /api/v1/settings", s.handleGetSettings)
	s.router.HandleFunc("PUT /api/v1/settings", s.handleUpdateSettings)
}

// ──────────────────── Helpers ────────────────────

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Error: message})
}

func (s *Server) readJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) Start() error {
	handler := s.corsMiddleware(s.router)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.config.Port), handler)
}

// Handler exposes the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.router)
}

// corsMiddleware handles CORS preflight and response headers globally.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
