package scheduler

import (
	"testing"

	"github.com/filmshelf/filmshelf/internal/db"
	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOrphans(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	movieRepo := repository.NewMovieRepository(database.DB)
	posterRepo := repository.NewPosterRepository(database.DB)
	statusRepo := repository.NewStatusRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)

	// A status and a category link whose movie never made it to the store.
	require.NoError(t, statusRepo.Upsert(&models.UserStatus{ImdbID: "tt-gone", IsWatched: true}))
	cat := &models.Category{ID: uuid.New(), Name: "Noir"}
	require.NoError(t, categoryRepo.Create(cat))
	require.NoError(t, categoryRepo.Link("tt-gone", cat.ID))

	// And a live movie whose records must survive the sweep.
	require.NoError(t, movieRepo.Create(&models.MovieDetail{ImdbID: "tt-live", Title: "Heat"}))
	require.NoError(t, statusRepo.Upsert(&models.UserStatus{ImdbID: "tt-live", IsFavorite: true}))
	require.NoError(t, categoryRepo.Link("tt-live", cat.ID))

	s := New(posterRepo, statusRepo, categoryRepo)
	s.sweep()

	gone, err := statusRepo.Get("tt-gone")
	require.NoError(t, err)
	require.Nil(t, gone)
	live, err := statusRepo.Get("tt-live")
	require.NoError(t, err)
	require.NotNil(t, live)

	links, err := categoryRepo.GetAllLinks()
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "tt-live", links[0].ImdbID)
}
