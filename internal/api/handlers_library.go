package api

import (
	"net/http"
	"strings"

	"github.com/filmshelf/filmshelf/internal/jobs"
	"github.com/filmshelf/filmshelf/internal/library"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"movies":     len(s.state.Movies(library.Criteria{})),
			"categories": len(s.state.Categories()),
			"clients":    s.wsHub.ClientCount(),
			"omdb":       s.config.OMDbEnabled(),
			"tmdb":       s.config.TMDbEnabled(),
		},
	})
}

// ──────────────────── Batch Resolution ────────────────────

type resolveRequest struct {
	Files       []string `json:"files"`
	CategoryIDs []string `json:"category_ids"`
}

// handleResolve accepts a batch of filenames and enqueues the resolution
// job. The batch id doubles as the task id, so a duplicate submission of
// the same batch cannot run twice. Submitting also advances the library
// generation, which invalidates any still-running older batch.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := s.readJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files submitted")
		return
	}
	for _, raw := range req.CategoryIDs {
		if _, err := uuid.Parse(raw); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid category id")
			return
		}
	}

	batchID := uuid.New()
	payload := jobs.ResolvePayload{
		BatchID:     batchID.String(),
		Generation:  s.state.BeginBatch(),
		Files:       req.Files,
		CategoryIDs: req.CategoryIDs,
	}
	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskResolveBatch, payload, batchID.String()); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to enqueue batch")
		return
	}
	s.respondJSON(w, http.StatusAccepted, Response{
		Success: true,
		Data:    map[string]string{"batch_id": batchID.String()},
	})
}

// ──────────────────── Listing & Filtering ────────────────────

// criteriaFromQuery reads the filter facets off the query string. Multi
// value facets take comma-separated values.
func criteriaFromQuery(r *http.Request) library.Criteria {
	q := r.URL.Query()
	multi := func(key string) []string {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		var out []string
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return library.Criteria{
		Query:       q.Get("q"),
		Genres:      multi("genres"),
		Years:       multi("years"),
		Ratings:     multi("ratings"),
		Languages:   multi("languages"),
		Countries:   multi("countries"),
		CategoryIDs: multi("categories"),
		Favorite:    q.Get("favorite") == "true",
		Watched:     q.Get("watched") == "true",
	}
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies := s.state.Movies(criteriaFromQuery(r))
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: movies})
}

// handleLibraryFilters returns the distinct facet values present in the
// library, for the UI's filter dropdowns.
func (s *Server) handleLibraryFilters(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: s.state.Facets()})
}

// handleClearLibrary empties the store. With keep_categories=true (the
// default) user categories survive; system categories always do.
func (s *Server) handleClearLibrary(w http.ResponseWriter, r *http.Request) {
	keep := r.URL.Query().Get("keep_categories") != "false"
	if err := s.state.Clear(keep); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to clear library")
		return
	}
	s.wsHub.Broadcast("library:cleared", map[string]bool{"kept_categories": keep})
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

// ──────────────────── Single Movie ────────────────────

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movie := s.state.Movie(r.PathValue("id"))
	if movie == nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: movie})
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	imdbID := r.PathValue("id")
	if s.state.Movie(imdbID) == nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err := s.state.DeleteMovie(imdbID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to delete movie")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

// handleGetPoster serves the stored poster bytes with their mime type.
// Poster images are immutable so clients may cache them hard.
func (s *Server) handleGetPoster(w http.ResponseWriter, r *http.Request) {
	poster, err := s.posterRepo.Get(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load poster")
		return
	}
	if poster == nil {
		s.respondError(w, http.StatusNotFound, "no poster stored")
		return
	}
	w.Header().Set("Content-Type", poster.Mime)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(poster.Image)
}

// ──────────────────── Status Toggles ────────────────────

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	imdbID := r.PathValue("id")
	if s.state.Movie(imdbID) == nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	value, err := s.state.ToggleFavorite(imdbID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]bool{"is_favorite": value},
	})
}

func (s *Server) handleToggleWatched(w http.ResponseWriter, r *http.Request) {
	imdbID := r.PathValue("id")
	if s.state.Movie(imdbID) == nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	value, err := s.state.ToggleWatched(imdbID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to toggle watched")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]bool{"is_watched": value},
	})
}
