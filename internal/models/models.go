package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Library Records ────────────────────

// FileRecord is a local video file that has been imported into the library.
// FileName is the unique key and doubles as the "already processed" check.
type FileRecord struct {
	FileName  string    `json:"file_name"`
	Title     string    `json:"title"`
	Year      string    `json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MovieDetail is the canonical metadata record for a movie, keyed by IMDB ID.
// Fields mirror the OMDb response shape; the record is immutable once stored.
type MovieDetail struct {
	ImdbID     string    `json:"imdb_id"`
	Title      string    `json:"title"`
	Year       string    `json:"year"`
	Rated      string    `json:"rated"`
	Runtime    string    `json:"runtime"`
	Genre      string    `json:"genre"`
	Plot       string    `json:"plot"`
	Language   string    `json:"language"`
	Country    string    `json:"country"`
	Awards     string    `json:"awards"`
	PosterURL  string    `json:"poster_url"`
	Metascore  string    `json:"metascore"`
	ImdbRating string    `json:"imdb_rating"`
	ImdbVotes  string    `json:"imdb_votes"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Poster holds the compressed poster image for a movie (one per IMDB ID).
type Poster struct {
	ImdbID string `json:"imdb_id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Mime   string `json:"mime"`
	Image  []byte `json:"-"`
}

// UserStatus tracks the per-movie favorite/watched flags. Created lazily on
// first toggle; a missing row reads as both flags false.
type UserStatus struct {
	ImdbID     string    `json:"imdb_id"`
	IsFavorite bool      `json:"is_favorite"`
	IsWatched  bool      `json:"is_watched"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ──────────────────── Categories ────────────────────

// System category names, created at startup and protected from bulk deletion.
const (
	CategorySearched = "Searched"
	CategoryUploaded = "Uploaded"
)

// Category is a user-visible movie grouping. Names are unique
// case-insensitively.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsSystem  bool      `json:"is_system"`
	CreatedAt time.Time `json:"created_at"`
}

// MovieCategory links a movie to a category (many-to-many, unique per pair).
type MovieCategory struct {
	ImdbID     string    `json:"imdb_id"`
	CategoryID uuid.UUID `json:"category_id"`
}

// ──────────────────── Denormalized View ────────────────────

// MovieInfo is the denormalized per-movie view the library state serves to
// the UI: detail record joined with status flags, poster presence, and
// category memberships on imdbID.
type MovieInfo struct {
	MovieDetail
	IsFavorite  bool        `json:"is_favorite"`
	IsWatched   bool        `json:"is_watched"`
	HasPoster   bool        `json:"has_poster"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// ──────────────────── Resolution Workflow ────────────────────

// FailureReason classifies why a file in a batch did not resolve.
type FailureReason string

const (
	FailureNotFound  FailureReason = "not_found"
	FailureTransport FailureReason = "transport"
	FailurePersist   FailureReason = "persist"
)

// ResolvedFile is a batch entry that ended with a detail record, whether
// newly fetched or already present in the store.
type ResolvedFile struct {
	FileName string `json:"file_name"`
	Title    string `json:"title"`
	ImdbID   string `json:"imdb_id"`
}

// FailedFile is a batch entry that ended without a detail record.
type FailedFile struct {
	FileName string        `json:"file_name"`
	Title    string        `json:"title"`
	Reason   FailureReason `json:"reason"`
	Message  string        `json:"message,omitempty"`
}

// ResolveReport partitions one submitted batch into successes and failures.
// HadErrors is set when any step hit an unexpected error, even if individual
// items still resolved.
type ResolveReport struct {
	BatchID   uuid.UUID      `json:"batch_id"`
	Successes []ResolvedFile `json:"successes"`
	Failures  []FailedFile   `json:"failures"`
	Processed int            `json:"processed"`
	HadErrors bool           `json:"had_errors"`
}
