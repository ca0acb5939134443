package metadata

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/filmshelf/filmshelf/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when a provider explicitly reports no match for a
// query. It is distinct from transport errors; callers tell them apart with
// errors.Is.
var ErrNotFound = errors.New("metadata: not found")

// DetailProvider resolves a title or canonical ID to a full detail record.
type DetailProvider interface {
	ByTitle(ctx context.Context, title, year string) (*models.MovieDetail, error)
	ByIMDBID(ctx context.Context, imdbID string) (*models.MovieDetail, error)
	Name() string
}

// RateAdjustable is implemented by providers whose outbound request rate
// can be retuned at runtime.
type RateAdjustable interface {
	SetRate(rps float64)
}

// SearchProvider offers free-text candidate search plus resolution of a
// candidate to the canonical IMDB ID consumed by the detail provider.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
	ResolveIMDBID(ctx context.Context, externalID int) (string, error)
	Trailer(ctx context.Context, externalID int) (*Trailer, error)
	Name() string
}

// Candidate is one ranked search result from the search provider.
type Candidate struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterThumb string `json:"poster_thumb,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// Trailer is a video reference resolved for a movie.
type Trailer struct {
	Site     string `json:"site"`
	Key      string `json:"key"`
	Official bool   `json:"official"`
}

// newHTTPClient is the shared client constructor; every provider call gets
// the same 10s ceiling.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// newLimiter builds the courtesy rate limiter applied before each outbound
// provider request.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = 4
	}
	return rate.NewLimiter(rate.Limit(rps), int(rps)+1)
}

// newResponseCache holds provider responses for the session so re-submitting
// the same titles does not re-query the network.
func newResponseCache() *gocache.Cache {
	return gocache.New(30*time.Minute, 10*time.Minute)
}
