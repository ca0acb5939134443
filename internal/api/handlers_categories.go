package api

import (
	"net/http"
	"strings"

	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/google/uuid"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: s.state.Categories()})
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.readJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "category name required")
		return
	}

	existing, err := s.categoryRepo.GetByName(name)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to check category name")
		return
	}
	if existing != nil {
		s.respondError(w, http.StatusConflict, "category name already in use")
		return
	}

	category := &models.Category{ID: uuid.New(), Name: name}
	if err := s.categoryRepo.Create(category); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	if err := s.state.Reload(); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reload library")
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: category})
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req categoryRequest
	if err := s.readJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "category name required")
		return
	}

	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load category")
		return
	}
	if category == nil {
		s.respondError(w, http.StatusNotFound, "category not found")
		return
	}
	if category.IsSystem {
		s.respondError(w, http.StatusForbidden, "system categories cannot be renamed")
		return
	}

	if other, err := s.categoryRepo.GetByName(name); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to check category name")
		return
	} else if other != nil && other.ID != id {
		s.respondError(w, http.StatusConflict, "category name already in use")
		return
	}

	if err := s.categoryRepo.Rename(id, name); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to rename category")
		return
	}
	if err := s.state.Reload(); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reload library")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load category")
		return
	}
	if category == nil {
		s.respondError(w, http.StatusNotFound, "category not found")
		return
	}
	if category.IsSystem {
		s.respondError(w, http.StatusForbidden, "system categories cannot be deleted")
		return
	}

	if err := s.categoryRepo.Delete(id); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	if err := s.state.Reload(); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reload library")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

// ──────────────────── Movie ↔ Category Links ────────────────────

func (s *Server) linkTarget(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	imdbID := r.PathValue("id")
	if s.state.Movie(imdbID) == nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return "", uuid.Nil, false
	}
	catID, err := uuid.Parse(r.PathValue("categoryId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid category id")
		return "", uuid.Nil, false
	}
	category, err := s.categoryRepo.GetByID(catID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load category")
		return "", uuid.Nil, false
	}
	if category == nil {
		s.respondError(w, http.StatusNotFound, "category not found")
		return "", uuid.Nil, false
	}
	return imdbID, catID, true
}

// handleLinkCategory tags a movie; linking an already-linked pair is a
// no-op and still succeeds.
func (s *Server) handleLinkCategory(w http.ResponseWriter, r *http.Request) {
	imdbID, catID, ok := s.linkTarget(w, r)
	if !ok {
		return
	}
	if err := s.categoryRepo.Link(imdbID, catID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to link category")
		return
	}
	if err := s.state.Reload(); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reload library")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

func (s *Server) handleUnlinkCategory(w http.ResponseWriter, r *http.Request) {
	imdbID, catID, ok := s.linkTarget(w, r)
	if !ok {
		return
	}
	if err := s.categoryRepo.Unlink(imdbID, catID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to unlink category")
		return
	}
	if err := s.state.Reload(); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reload library")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}
