package api

import (
	"net/http"

	"github.com/filmshelf/filmshelf/internal/metadata"
)

// settingKeys are the keys the UI may read and write. API keys are write
// only in the read response beyond a configured/not-configured flag.
var settingKeys = []string{"omdb_api_key", "tmdb_api_key", "poster_quality", "provider_rps"}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	stored, err := s.settingsRepo.All()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	out := map[string]interface{}{
		"omdb_configured": s.config.OMDbEnabled(),
		"tmdb_configured": s.config.TMDbEnabled(),
		"poster_quality":  s.config.PosterQuality,
		"provider_rps":    s.config.ProviderRPS,
	}
	if v, ok := stored["poster_quality"]; ok {
		out["poster_quality_override"] = v
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

// handleUpdateSettings persists overrides, re-merges them onto the live
// config, and retunes the poster quality and provider rate in place.
// New API keys still require a restart; the clients are built once with
// the keys they start with.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := s.readJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for key, value := range req {
		if !isKnownSetting(key) {
			s.respondError(w, http.StatusBadRequest, "unknown setting "+key)
			return
		}
		if err := s.settingsRepo.Set(key, value); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to save setting")
			return
		}
	}
	s.config.MergeFromDB(s.db.DB)
	if s.resolver != nil {
		s.resolver.ApplySettings(s.config.PosterQuality, s.config.ProviderRPS)
	}
	if ra, ok := s.search.(metadata.RateAdjustable); ok {
		ra.SetRate(s.config.ProviderRPS)
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

func isKnownSetting(key string) bool {
	for _, k := range settingKeys {
		if k == key {
			return true
		}
	}
	return false
}
