package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func tmdbStub(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
}

func TestTMDbSearch(t *testing.T) {
	stub := tmdbStub(t, map[string]string{
		"/search/movie": `{"results":[
			{"id":603,"title":"The Matrix","poster_path":"/p.jpg","release_date":"1999-03-31"},
			{"id":604,"title":"The Matrix Reloaded","poster_path":"","release_date":"2003-05-15"}
		]}`,
	})
	defer stub.Close()

	s := NewTMDbScraper("k", 100)
	s.SetBaseURL(stub.URL)

	candidates, err := s.Search(context.Background(), "matrix")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, 603, candidates[0].ID)
	require.Equal(t, tmdbPosterThumbBase+"/p.jpg", candidates[0].PosterThumb)
	require.Empty(t, candidates[1].PosterThumb)
}

func TestTMDbResolveIMDBID(t *testing.T) {
	stub := tmdbStub(t, map[string]string{
		"/movie/603/external_ids": `{"imdb_id":"tt0133093"}`,
		"/movie/999/external_ids": `{"imdb_id":""}`,
	})
	defer stub.Close()

	s := NewTMDbScraper("k", 100)
	s.SetBaseURL(stub.URL)

	id, err := s.ResolveIMDBID(context.Background(), 603)
	require.NoError(t, err)
	require.Equal(t, "tt0133093", id)

	// A movie without an IMDB ID is a miss, not a transport error.
	_, err = s.ResolveIMDBID(context.Background(), 999)
	require.True(t, errors.Is(err, ErrNotFound))

	// Unknown movie: the 404 is a miss too.
	_, err = s.ResolveIMDBID(context.Background(), 12345)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestTMDbTrailerPrefersOfficial(t *testing.T) {
	stub := tmdbStub(t, map[string]string{
		"/movie/603/videos": `{"results":[
			{"site":"YouTube","key":"fan1","type":"Trailer","official":false},
			{"site":"YouTube","key":"off1","type":"Trailer","official":true},
			{"site":"YouTube","key":"clip","type":"Clip","official":true}
		]}`,
		"/movie/604/videos": `{"results":[
			{"site":"YouTube","key":"fan2","type":"Trailer","official":false}
		]}`,
		"/movie/605/videos": `{"results":[
			{"site":"YouTube","key":"clip","type":"Clip","official":true}
		]}`,
	})
	defer stub.Close()

	s := NewTMDbScraper("k", 100)
	s.SetBaseURL(stub.URL)

	tr, err := s.Trailer(context.Background(), 603)
	require.NoError(t, err)
	require.Equal(t, "off1", tr.Key)
	require.True(t, tr.Official)

	tr, err = s.Trailer(context.Background(), 604)
	require.NoError(t, err)
	require.Equal(t, "fan2", tr.Key)

	_, err = s.Trailer(context.Background(), 605)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestTMDbRequiresAPIKey(t *testing.T) {
	s := NewTMDbScraper("", 100)
	_, err := s.Search(context.Background(), "matrix")
	require.Error(t, err)
}
