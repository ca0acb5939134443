package library

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// State is the in-memory aggregate of the persisted library: every detail
// record joined with its status flags, poster presence, and category links
// on imdbID. It is the single writer over its own maps; consumers read
// filtered snapshots.
type State struct {
	movieRepo    *repository.MovieRepository
	posterRepo   *repository.PosterRepository
	statusRepo   *repository.StatusRepository
	categoryRepo *repository.CategoryRepository
	fileRepo     *repository.FileRepository

	mu         sync.RWMutex
	movies     map[string]*models.MovieInfo
	categories []*models.Category
	generation uint64
}

// newCollator builds the title ordering. Collators carry internal buffers
// and are not safe for concurrent use, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

func NewState(movieRepo *repository.MovieRepository, posterRepo *repository.PosterRepository,
	statusRepo *repository.StatusRepository, categoryRepo *repository.CategoryRepository,
	fileRepo *repository.FileRepository) *State {
	return &State{
		movieRepo:    movieRepo,
		posterRepo:   posterRepo,
		statusRepo:   statusRepo,
		categoryRepo: categoryRepo,
		fileRepo:     fileRepo,
		movies:       make(map[string]*models.MovieInfo),
	}
}

// ──────────────────── Liveness ────────────────────

// BeginBatch advances the generation counter and returns the new value.
// A resolution batch holds its generation and applies its final reload only
// while it is still current, so a stale slow batch cannot clobber state
// written by a newer one.
func (s *State) BeginBatch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// ReloadIfCurrent reloads only when gen is still the live generation.
func (s *State) ReloadIfCurrent(gen uint64) error {
	s.mu.RLock()
	current := s.generation
	s.mu.RUnlock()
	if gen != current {
		log.Printf("[library] skipping reload for stale batch (gen %d, current %d)", gen, current)
		return nil
	}
	return s.Reload()
}

// ──────────────────── Reload Join ────────────────────

// Reload rebuilds the aggregate from the store. Poster bytes stay in the
// store; only presence is joined in.
func (s *State) Reload() error {
	details, err := s.movieRepo.GetAll()
	if err != nil {
		return fmt.Errorf("reload details: %w", err)
	}
	posterIDs, err := s.posterRepo.GetAllIDs()
	if err != nil {
		return fmt.Errorf("reload posters: %w", err)
	}
	statuses, err := s.statusRepo.GetAll()
	if err != nil {
		return fmt.Errorf("reload statuses: %w", err)
	}
	categories, err := s.categoryRepo.GetAll()
	if err != nil {
		return fmt.Errorf("reload categories: %w", err)
	}
	links, err := s.categoryRepo.GetAllLinks()
	if err != nil {
		return fmt.Errorf("reload links: %w", err)
	}

	statusByID := make(map[string]*models.UserStatus, len(statuses))
	for _, st := range statuses {
		statusByID[st.ImdbID] = st
	}
	linksByID := make(map[string][]uuid.UUID)
	for _, l := range links {
		linksByID[l.ImdbID] = append(linksByID[l.ImdbID], l.CategoryID)
	}

	movies := make(map[string]*models.MovieInfo, len(details))
	for _, d := range details {
		info := &models.MovieInfo{
			MovieDetail: *d,
			HasPoster:   posterIDs[d.ImdbID],
			CategoryIDs: linksByID[d.ImdbID],
		}
		if st := statusByID[d.ImdbID]; st != nil {
			info.IsFavorite = st.IsFavorite
			info.IsWatched = st.IsWatched
		}
		movies[d.ImdbID] = info
	}

	s.mu.Lock()
	s.movies = movies
	s.categories = categories
	s.mu.Unlock()
	log.Printf("[library] reloaded %d movies, %d categories", len(movies), len(categories))
	return nil
}

// ──────────────────── Reads ────────────────────

// snapshot copies a movie for use outside the lock. Toggles mutate the
// live entries in place, so readers must never hold the originals.
func snapshot(m *models.MovieInfo) *models.MovieInfo {
	c := *m
	c.CategoryIDs = append([]uuid.UUID(nil), m.CategoryIDs...)
	return &c
}

// Movies returns the movies matching criteria, ordered by title
// (case-insensitive, locale-aware). The returned entries are copies,
// safe to encode after the call.
func (s *State) Movies(c Criteria) []*models.MovieInfo {
	s.mu.RLock()
	var out []*models.MovieInfo
	for _, m := range s.movies {
		if c.Matches(m) {
			out = append(out, snapshot(m))
		}
	}
	s.mu.RUnlock()

	coll := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].Title, out[j].Title) < 0
	})
	return out
}

// Movie returns a copy of one movie, or nil when absent.
func (s *State) Movie(imdbID string) *models.MovieInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[imdbID]
	if !ok {
		return nil
	}
	return snapshot(m)
}

func (s *State) Categories() []*models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Category(nil), s.categories...)
}

// Facets collects the distinct facet values present in the library.
func (s *State) Facets() Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genres := make(map[string]bool)
	years := make(map[string]bool)
	ratings := make(map[string]bool)
	languages := make(map[string]bool)
	countries := make(map[string]bool)
	for _, m := range s.movies {
		for _, g := range splitMulti(m.Genre) {
			genres[g] = true
		}
		for _, l := range splitMulti(m.Language) {
			languages[l] = true
		}
		for _, c := range splitMulti(m.Country) {
			countries[c] = true
		}
		if m.Year != "" {
			years[m.Year] = true
		}
		if band := RatingBand(m.ImdbRating); band != "" {
			ratings[band] = true
		}
	}
	coll := newCollator()
	return Facets{
		Genres:    sortedKeys(coll, genres),
		Years:     sortedKeys(coll, years),
		Ratings:   sortedKeys(coll, ratings),
		Languages: sortedKeys(coll, languages),
		Countries: sortedKeys(coll, countries),
	}
}

func sortedKeys(coll *collate.Collator, set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return coll.CompareString(keys[i], keys[j]) < 0
	})
	return keys
}

// ──────────────────── Mutations ────────────────────

// ToggleFavorite flips the favorite flag optimistically in memory, then
// persists. On persistence failure the optimistic value stands and the
// error is surfaced to the caller.
func (s *State) ToggleFavorite(imdbID string) (bool, error) {
	return s.toggle(imdbID, func(st *models.UserStatus) *bool {
		st.IsFavorite = !st.IsFavorite
		return &st.IsFavorite
	})
}

// ToggleWatched flips the watched flag with the same semantics.
func (s *State) ToggleWatched(imdbID string) (bool, error) {
	return s.toggle(imdbID, func(st *models.UserStatus) *bool {
		st.IsWatched = !st.IsWatched
		return &st.IsWatched
	})
}

func (s *State) toggle(imdbID string, flip func(*models.UserStatus) *bool) (bool, error) {
	s.mu.Lock()
	m, ok := s.movies[imdbID]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("movie %s not in library", imdbID)
	}
	st := &models.UserStatus{ImdbID: imdbID, IsFavorite: m.IsFavorite, IsWatched: m.IsWatched}
	newValue := *flip(st)
	m.IsFavorite = st.IsFavorite
	m.IsWatched = st.IsWatched
	s.mu.Unlock()

	if err := s.statusRepo.Upsert(st); err != nil {
		log.Printf("[library] status persist failed for %s: %v", imdbID, err)
		return newValue, err
	}
	return newValue, nil
}

// DeleteMovie removes a movie and all its dependent records, then updates
// the aggregate. A store failure leaves prior state intact.
func (s *State) DeleteMovie(imdbID string) error {
	if err := s.categoryRepo.DeleteLinksForMovie(imdbID); err != nil {
		return fmt.Errorf("delete links: %w", err)
	}
	if err := s.posterRepo.Delete(imdbID); err != nil {
		return fmt.Errorf("delete poster: %w", err)
	}
	if err := s.statusRepo.Delete(imdbID); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	if err := s.movieRepo.Delete(imdbID); err != nil {
		return fmt.Errorf("delete detail: %w", err)
	}

	s.mu.Lock()
	delete(s.movies, imdbID)
	s.mu.Unlock()
	return nil
}

// Clear empties the library. System categories always survive; user
// categories survive unless keepCategories is false.
func (s *State) Clear(keepCategories bool) error {
	if err := s.categoryRepo.DeleteAllLinks(); err != nil {
		return fmt.Errorf("clear links: %w", err)
	}
	if err := s.posterRepo.DeleteAll(); err != nil {
		return fmt.Errorf("clear posters: %w", err)
	}
	if err := s.statusRepo.DeleteAll(); err != nil {
		return fmt.Errorf("clear statuses: %w", err)
	}
	if err := s.movieRepo.DeleteAll(); err != nil {
		return fmt.Errorf("clear details: %w", err)
	}
	if err := s.fileRepo.DeleteAll(); err != nil {
		return fmt.Errorf("clear file records: %w", err)
	}
	if !keepCategories {
		if err := s.categoryRepo.DeleteUserCategories(); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
	}
	return s.Reload()
}
