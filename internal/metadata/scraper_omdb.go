package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/filmshelf/filmshelf/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const omdbDefaultBaseURL = "https://www.omdbapi.com/"

// OMDbScraper is the canonical detail provider. Lookups go by title+year or
// directly by IMDB ID; a "Response: False" body maps to ErrNotFound so the
// workflow can distinguish a miss from a transport failure.
type OMDbScraper struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
}

func NewOMDbScraper(apiKey string, rps float64) *OMDbScraper {
	return &OMDbScraper{
		apiKey:  apiKey,
		baseURL: omdbDefaultBaseURL,
		client:  newHTTPClient(),
		limiter: newLimiter(rps),
		cache:   newResponseCache(),
	}
}

// SetBaseURL points the scraper at a different endpoint, used by tests.
func (s *OMDbScraper) SetBaseURL(u string) { s.baseURL = u }

// SetRate applies a new request rate to in-flight and future calls.
func (s *OMDbScraper) SetRate(rps float64) {
	if rps <= 0 {
		return
	}
	s.limiter.SetLimit(rate.Limit(rps))
	s.limiter.SetBurst(int(rps) + 1)
}

func (s *OMDbScraper) Name() string { return "omdb" }

type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	Metascore  string `json:"Metascore"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"`
}

func (s *OMDbScraper) ByTitle(ctx context.Context, title, year string) (*models.MovieDetail, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("OMDb API key not configured")
	}
	cacheKey := "t:" + strings.ToLower(title) + ":" + year
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(*models.MovieDetail), nil
	}

	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("t", title)
	params.Set("plot", "full")
	if year != "" {
		params.Set("y", year)
	}

	detail, err := s.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKey, detail, gocache.DefaultExpiration)
	return detail, nil
}

func (s *OMDbScraper) ByIMDBID(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("OMDb API key not configured")
	}
	cacheKey := "i:" + imdbID
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(*models.MovieDetail), nil
	}

	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("i", imdbID)
	params.Set("plot", "full")

	detail, err := s.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKey, detail, gocache.DefaultExpiration)
	return detail, nil
}

func (s *OMDbScraper) fetch(ctx context.Context, params url.Values) (*models.MovieDetail, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OMDb request returned %d", resp.StatusCode)
	}

	var body omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Response == "False" {
		// OMDb reports a miss in-band ("Movie not found!") rather than
		// with a status code.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, body.Error)
	}

	return &models.MovieDetail{
		ImdbID:     body.ImdbID,
		Title:      body.Title,
		Year:       body.Year,
		Rated:      body.Rated,
		Runtime:    body.Runtime,
		Genre:      body.Genre,
		Plot:       body.Plot,
		Language:   body.Language,
		Country:    body.Country,
		Awards:     body.Awards,
		PosterURL:  normalizePosterURL(body.Poster),
		Metascore:  body.Metascore,
		ImdbRating: body.ImdbRating,
		ImdbVotes:  body.ImdbVotes,
		Type:       body.Type,
	}, nil
}

// normalizePosterURL maps OMDb's "N/A" placeholder to an empty reference so
// the poster pipeline can treat absence uniformly.
func normalizePosterURL(poster string) string {
	if poster == "" || poster == "N/A" {
		return ""
	}
	return poster
}
