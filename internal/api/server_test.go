package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/filmshelf/filmshelf/internal/config"
	"github.com/filmshelf/filmshelf/internal/db"
	"github.com/filmshelf/filmshelf/internal/jobs"
	"github.com/filmshelf/filmshelf/internal/library"
	"github.com/filmshelf/filmshelf/internal/metadata"
	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/filmshelf/filmshelf/internal/poster"
	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/filmshelf/filmshelf/internal/resolver"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	fileRepo := repository.NewFileRepository(database.DB)
	movieRepo := repository.NewMovieRepository(database.DB)
	posterRepo := repository.NewPosterRepository(database.DB)
	statusRepo := repository.NewStatusRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	require.NoError(t, categoryRepo.EnsureSystem())

	require.NoError(t, movieRepo.Create(&models.MovieDetail{
		ImdbID: "tt0133093", Title: "The Matrix", Year: "1999",
		Genre: "Action, Sci-Fi", ImdbRating: "8.7",
	}))
	require.NoError(t, posterRepo.Create(&models.Poster{
		ImdbID: "tt0133093", Mime: "image/webp", Image: []byte{1, 2, 3},
	}))

	state := library.NewState(movieRepo, posterRepo, statusRepo, categoryRepo, fileRepo)
	require.NoError(t, state.Reload())

	srv := NewServer(config.Load(), database, state, nil, nil, jobs.NewQueue("localhost:0"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	defer resp.Body.Close()
	var r Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return r
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decodeResponse(t, resp).Success)
}

func TestListMoviesWithFilters(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/library/movies?genres=Sci-Fi")
	require.NoError(t, err)
	body := decodeResponse(t, resp)
	require.True(t, body.Success)
	movies := body.Data.([]interface{})
	require.Len(t, movies, 1)

	resp, err = http.Get(ts.URL + "/api/v1/library/movies?genres=Western")
	require.NoError(t, err)
	body = decodeResponse(t, resp)
	require.Empty(t, body.Data)
}

func TestGetMovieAndNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/movies/tt0133093")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/movies/tt9999999")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPosterServedWithMime(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/movies/tt0133093/poster")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
}

func TestToggleFavorite(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/movies/tt0133093/favorite", "application/json", nil)
	require.NoError(t, err)
	body := decodeResponse(t, resp)
	require.True(t, body.Success)
	require.Equal(t, true, body.Data.(map[string]interface{})["is_favorite"])

	resp, err = http.Post(ts.URL+"/api/v1/movies/tt0133093/favorite", "application/json", nil)
	require.NoError(t, err)
	body = decodeResponse(t, resp)
	require.Equal(t, false, body.Data.(map[string]interface{})["is_favorite"])
}

func TestCategoryLifecycle(t *testing.T) {
	srv, ts := newTestServer(t)

	// Create
	payload := bytes.NewBufferString(`{"name":"Noir"}`)
	resp, err := http.Post(ts.URL+"/api/v1/categories", "application/json", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeResponse(t, resp)
	id := created.Data.(map[string]interface{})["id"].(string)

	// Duplicate name, case-insensitively, is a conflict.
	resp, err = http.Post(ts.URL+"/api/v1/categories", "application/json",
		bytes.NewBufferString(`{"name":"noir"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Link to the seeded movie, then unlink.
	resp, err = http.Post(ts.URL+"/api/v1/movies/tt0133093/categories/"+id, "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	catID := uuid.MustParse(id)
	linked, err := srv.categoryRepo.IsLinked("tt0133093", catID)
	require.NoError(t, err)
	require.True(t, linked)

	req, _ := http.NewRequest(http.MethodDelete,
		ts.URL+"/api/v1/movies/tt0133093/categories/"+id, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Delete the category.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/categories/"+id, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSystemCategoryProtected(t *testing.T) {
	srv, ts := newTestServer(t)
	searched, err := srv.categoryRepo.GetByName(models.CategorySearched)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodDelete,
		ts.URL+"/api/v1/categories/"+searched.ID.String(), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestClearLibraryKeepsSystemCategories(t *testing.T) {
	srv, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/library?keep_categories=false", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Empty(t, srv.state.Movies(library.Criteria{}))
	require.Len(t, srv.state.Categories(), 2)
}

func TestResolveRejectsEmptyBatch(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/v1/library/resolve", "application/json",
		bytes.NewBufferString(`{"files":[]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// A poster_quality override lands on the running processor, not just the
// settings table.
func TestUpdateSettingsRetunesPosterQuality(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	fileRepo := repository.NewFileRepository(database.DB)
	movieRepo := repository.NewMovieRepository(database.DB)
	posterRepo := repository.NewPosterRepository(database.DB)
	statusRepo := repository.NewStatusRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	require.NoError(t, categoryRepo.EnsureSystem())

	state := library.NewState(movieRepo, posterRepo, statusRepo, categoryRepo, fileRepo)
	require.NoError(t, state.Reload())

	proc := poster.NewProcessor(60)
	res := resolver.New(fileRepo, movieRepo, posterRepo, categoryRepo,
		metadata.NewOMDbScraper("test-key", 4), metadata.NewImageFetcher(), proc, state)
	srv := NewServer(config.Load(), database, state, nil, res, jobs.NewQueue("localhost:0"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/settings",
		bytes.NewBufferString(`{"poster_quality":"85"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, 85, proc.Quality())
	require.Equal(t, 85, srv.config.PosterQuality)
}

func TestIdentifyUnavailableWithoutResolver(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/v1/library/identify", "application/json",
		bytes.NewBufferString(`{"imdb_id":"tt0137523"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestSearchUnavailableWithoutProvider(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/search?q=matrix")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
