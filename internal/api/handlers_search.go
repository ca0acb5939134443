package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/filmshelf/filmshelf/internal/metadata"
)

// Passthroughs to the search provider, used by the UI's manual-match flow:
// search for candidates, resolve a candidate to its IMDB ID, look up a
// trailer.

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		s.respondError(w, http.StatusServiceUnavailable, "search provider not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query required")
		return
	}
	candidates, err := s.search.Search(r.Context(), query)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: candidates})
}

func (s *Server) searchID(w http.ResponseWriter, r *http.Request) (int, bool) {
	if s.search == nil {
		s.respondError(w, http.StatusServiceUnavailable, "search provider not configured")
		return 0, false
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid candidate id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleResolveIMDBID(w http.ResponseWriter, r *http.Request) {
	id, ok := s.searchID(w, r)
	if !ok {
		return
	}
	imdbID, err := s.search.ResolveIMDBID(r.Context(), id)
	if errors.Is(err, metadata.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "no imdb id for candidate")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "resolve failed")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"imdb_id": imdbID},
	})
}

// handleIdentify finishes the manual match: the client resolved a search
// candidate to an IMDB ID and asks for it to be added to the library.
func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		s.respondError(w, http.StatusServiceUnavailable, "resolver not configured")
		return
	}
	var req struct {
		ImdbID string `json:"imdb_id"`
	}
	if err := s.readJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	imdbID := strings.TrimSpace(req.ImdbID)
	if imdbID == "" {
		s.respondError(w, http.StatusBadRequest, "imdb_id required")
		return
	}
	detail, err := s.resolver.Identify(r.Context(), imdbID)
	if errors.Is(err, metadata.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "no movie for imdb id")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "identify failed")
		return
	}
	if info := s.state.Movie(detail.ImdbID); info != nil {
		s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: info})
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: detail})
}

func (s *Server) handleTrailer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.searchID(w, r)
	if !ok {
		return
	}
	trailer, err := s.search.Trailer(r.Context(), id)
	if errors.Is(err, metadata.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "no trailer found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "trailer lookup failed")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: trailer})
}
