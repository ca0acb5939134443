package repository

import (
	"testing"

	"github.com/filmshelf/filmshelf/internal/db"
	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))
	return database
}

// ──────────────────── File Records ────────────────────

func TestFileRepositoryExists(t *testing.T) {
	repo := NewFileRepository(testDB(t).DB)

	ok, err := repo.Exists("Alpha.2001.mkv")
	require.NoError(t, err)
	require.False(t, ok)

	rec := &models.FileRecord{FileName: "Alpha.2001.mkv", Title: "Alpha", Year: "2001"}
	require.NoError(t, repo.Create(rec))
	require.False(t, rec.CreatedAt.IsZero())

	ok, err = repo.Exists("Alpha.2001.mkv")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFileRepositoryDuplicateKeyRejected(t *testing.T) {
	repo := NewFileRepository(testDB(t).DB)
	require.NoError(t, repo.Create(&models.FileRecord{FileName: "a.mkv", Title: "a"}))
	require.Error(t, repo.Create(&models.FileRecord{FileName: "a.mkv", Title: "a"}))
}

// ──────────────────── Movie Details ────────────────────

// Detail records are immutable: a second insert for the same imdbID is
// silently ignored and the first row stands.
func TestMovieRepositoryImmutable(t *testing.T) {
	repo := NewMovieRepository(testDB(t).DB)

	require.NoError(t, repo.Create(&models.MovieDetail{ImdbID: "tt1", Title: "Original"}))
	require.NoError(t, repo.Create(&models.MovieDetail{ImdbID: "tt1", Title: "Changed"}))

	got, err := repo.GetByID("tt1")
	require.NoError(t, err)
	require.Equal(t, "Original", got.Title)
}

func TestMovieRepositoryGetByTitleCaseInsensitive(t *testing.T) {
	repo := NewMovieRepository(testDB(t).DB)
	require.NoError(t, repo.Create(&models.MovieDetail{ImdbID: "tt1", Title: "The Matrix"}))

	got, err := repo.GetByTitle("the matrix")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "tt1", got.ImdbID)

	missing, err := repo.GetByTitle("no such movie")
	require.NoError(t, err)
	require.Nil(t, missing)
}

// ──────────────────── Posters ────────────────────

func TestPosterRepositoryRoundTrip(t *testing.T) {
	database := testDB(t)
	movies := NewMovieRepository(database.DB)
	posters := NewPosterRepository(database.DB)

	require.NoError(t, movies.Create(&models.MovieDetail{ImdbID: "tt1", Title: "Alien"}))
	p := &models.Poster{ImdbID: "tt1", Title: "Alien", Mime: "image/webp", Image: []byte{1, 2, 3}}
	require.NoError(t, posters.Create(p))

	got, err := posters.Get("tt1")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got.Image)
	require.Equal(t, "image/webp", got.Mime)

	ids, err := posters.GetAllIDs()
	require.NoError(t, err)
	require.True(t, ids["tt1"])
}

func TestPosterRepositoryOrphanSweep(t *testing.T) {
	database := testDB(t)
	movies := NewMovieRepository(database.DB)
	posters := NewPosterRepository(database.DB)
	statuses := NewStatusRepository(database.DB)

	require.NoError(t, movies.Create(&models.MovieDetail{ImdbID: "tt1", Title: "Alien"}))
	require.NoError(t, posters.Create(&models.Poster{ImdbID: "tt1", Image: []byte{1}}))
	require.NoError(t, statuses.Upsert(&models.UserStatus{ImdbID: "tt1", IsWatched: true}))

	// Statuses have no FK, so after the detail goes they are orphans.
	require.NoError(t, movies.Delete("tt1"))

	n, err := statuses.DeleteOrphans()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// The poster followed the detail via the cascade.
	n, err = posters.DeleteOrphans()
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	got, err := posters.Get("tt1")
	require.NoError(t, err)
	require.Nil(t, got)
}

// ──────────────────── Categories ────────────────────

func TestCategoryRepositoryEnsureSystemIdempotent(t *testing.T) {
	repo := NewCategoryRepository(testDB(t).DB)
	require.NoError(t, repo.EnsureSystem())
	require.NoError(t, repo.EnsureSystem())

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, c := range all {
		require.True(t, c.IsSystem)
	}
}

func TestCategoryNameUniqueCaseInsensitive(t *testing.T) {
	repo := NewCategoryRepository(testDB(t).DB)
	require.NoError(t, repo.Create(&models.Category{ID: uuid.New(), Name: "Noir"}))
	require.Error(t, repo.Create(&models.Category{ID: uuid.New(), Name: "noir"}))

	got, err := repo.GetByName("NOIR")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Noir", got.Name)
}

func TestDeleteUserCategoriesSparesSystem(t *testing.T) {
	repo := NewCategoryRepository(testDB(t).DB)
	require.NoError(t, repo.EnsureSystem())
	require.NoError(t, repo.Create(&models.Category{ID: uuid.New(), Name: "Noir"}))

	require.NoError(t, repo.DeleteUserCategories())

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestLinkIdempotentAndCascades(t *testing.T) {
	database := testDB(t)
	repo := NewCategoryRepository(database.DB)
	cat := &models.Category{ID: uuid.New(), Name: "Noir"}
	require.NoError(t, repo.Create(cat))

	require.NoError(t, repo.Link("tt1", cat.ID))
	require.NoError(t, repo.Link("tt1", cat.ID))

	links, err := repo.GetAllLinks()
	require.NoError(t, err)
	require.Len(t, links, 1)

	// Deleting the category takes its links with it.
	require.NoError(t, repo.Delete(cat.ID))
	links, err = repo.GetAllLinks()
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestRenameMissingCategory(t *testing.T) {
	repo := NewCategoryRepository(testDB(t).DB)
	require.Error(t, repo.Rename(uuid.New(), "anything"))
}

// ──────────────────── Settings ────────────────────

func TestSettingsUpsert(t *testing.T) {
	repo := NewSettingsRepository(testDB(t).DB)

	v, err := repo.Get("poster_quality")
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, repo.Set("poster_quality", "60"))
	require.NoError(t, repo.Set("poster_quality", "75"))

	v, err = repo.Get("poster_quality")
	require.NoError(t, err)
	require.Equal(t, "75", v)

	all, err := repo.All()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"poster_quality": "75"}, all)
}
