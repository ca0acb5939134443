package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	tmdbDefaultBaseURL  = "https://api.themoviedb.org/3"
	tmdbPosterThumbBase = "https://image.tmdb.org/t/p/w185"
)

// TMDbScraper is the search/enrichment provider: free-text candidate search,
// candidate-to-IMDB-ID resolution, and trailer lookup.
type TMDbScraper struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
}

func NewTMDbScraper(apiKey string, rps float64) *TMDbScraper {
	return &TMDbScraper{
		apiKey:  apiKey,
		baseURL: tmdbDefaultBaseURL,
		client:  newHTTPClient(),
		limiter: newLimiter(rps),
		cache:   newResponseCache(),
	}
}

// SetBaseURL points the scraper at a different endpoint, used by tests.
func (s *TMDbScraper) SetBaseURL(u string) { s.baseURL = u }

// SetRate applies a new request rate to in-flight and future calls.
func (s *TMDbScraper) SetRate(rps float64) {
	if rps <= 0 {
		return
	}
	s.limiter.SetLimit(rate.Limit(rps))
	s.limiter.SetBurst(int(rps) + 1)
}

func (s *TMDbScraper) Name() string { return "tmdb" }

func (s *TMDbScraper) get(ctx context.Context, path string, params url.Values, dst interface{}) error {
	if s.apiKey == "" {
		return fmt.Errorf("TMDb API key not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: tmdb %s", ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDb request returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Search returns a short ranked candidate list for a free-text query.
func (s *TMDbScraper) Search(ctx context.Context, query string) ([]Candidate, error) {
	cacheKey := "search:" + query
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.([]Candidate), nil
	}

	params := url.Values{}
	params.Set("query", query)

	var result struct {
		Results []struct {
			ID          int    `json:"id"`
			Title       string `json:"title"`
			PosterPath  string `json:"poster_path"`
			ReleaseDate string `json:"release_date"`
		} `json:"results"`
	}
	if err := s.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}

	var candidates []Candidate
	for i, r := range result.Results {
		if i >= 10 {
			break
		}
		thumb := ""
		if r.PosterPath != "" {
			thumb = tmdbPosterThumbBase + r.PosterPath
		}
		candidates = append(candidates, Candidate{
			ID:          r.ID,
			Title:       r.Title,
			PosterThumb: thumb,
			ReleaseDate: r.ReleaseDate,
		})
	}
	s.cache.Set(cacheKey, candidates, gocache.DefaultExpiration)
	return candidates, nil
}

// ResolveIMDBID maps a TMDb movie ID to the canonical IMDB ID consumed by
// the detail provider. A movie without an IMDB ID resolves to ErrNotFound.
func (s *TMDbScraper) ResolveIMDBID(ctx context.Context, externalID int) (string, error) {
	cacheKey := "ids:" + strconv.Itoa(externalID)
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(string), nil
	}

	var result struct {
		ImdbID string `json:"imdb_id"`
	}
	path := fmt.Sprintf("/movie/%d/external_ids", externalID)
	if err := s.get(ctx, path, url.Values{}, &result); err != nil {
		return "", err
	}
	if result.ImdbID == "" {
		return "", fmt.Errorf("%w: no imdb id for tmdb %d", ErrNotFound, externalID)
	}
	s.cache.Set(cacheKey, result.ImdbID, gocache.DefaultExpiration)
	return result.ImdbID, nil
}

// Trailer returns the best video reference for a movie: official trailers
// win, then any trailer, then nothing.
func (s *TMDbScraper) Trailer(ctx context.Context, externalID int) (*Trailer, error) {
	var result struct {
		Results []struct {
			Site     string `json:"site"`
			Key      string `json:"key"`
			Type     string `json:"type"`
			Official bool   `json:"official"`
		} `json:"results"`
	}
	path := fmt.Sprintf("/movie/%d/videos", externalID)
	if err := s.get(ctx, path, url.Values{}, &result); err != nil {
		return nil, err
	}

	var fallback *Trailer
	for _, v := range result.Results {
		if v.Type != "Trailer" || v.Key == "" {
			continue
		}
		t := &Trailer{Site: v.Site, Key: v.Key, Official: v.Official}
		if v.Official {
			return t, nil
		}
		if fallback == nil {
			fallback = t
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: no trailer for tmdb %d", ErrNotFound, externalID)
	}
	return fallback, nil
}
