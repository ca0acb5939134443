package library

import (
	"testing"

	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func movieInfo(title string) *models.MovieInfo {
	return &models.MovieInfo{
		MovieDetail: models.MovieDetail{
			ImdbID:     "tt0000001",
			Title:      title,
			Year:       "1999",
			Genre:      "Action, Sci-Fi",
			Language:   "English, French",
			Country:    "USA",
			ImdbRating: "8.7",
		},
	}
}

func TestRatingBand(t *testing.T) {
	tests := []struct {
		rating string
		want   string
	}{
		{"9.3", BandNinePlus},
		{"9.0", BandNinePlus},
		{"8.7", BandEightNine},
		{"8.0", BandEightNine},
		{"7.5", BandSevenEight},
		{"6.9", BandBelowSeven},
		{"1.2", BandBelowSeven},
		{"N/A", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RatingBand(tt.rating), "rating %q", tt.rating)
	}
}

func TestMatchesQuery(t *testing.T) {
	m := movieInfo("The Matrix")
	assert.True(t, Criteria{Query: "matrix"}.Matches(m))
	assert.True(t, Criteria{Query: "The M"}.Matches(m))
	assert.False(t, Criteria{Query: "inception"}.Matches(m))
	assert.True(t, Criteria{}.Matches(m))
}

// Facets combine with AND; values inside one facet combine with OR.
func TestMatchesFacetLaw(t *testing.T) {
	m := movieInfo("The Matrix")

	// OR within a facet: one matching value is enough.
	assert.True(t, Criteria{Genres: []string{"Western", "Sci-Fi"}}.Matches(m))
	assert.False(t, Criteria{Genres: []string{"Western", "Comedy"}}.Matches(m))

	// AND across facets: every specified facet must hold.
	assert.True(t, Criteria{
		Genres: []string{"Action"},
		Years:  []string{"1999"},
	}.Matches(m))
	assert.False(t, Criteria{
		Genres: []string{"Action"},
		Years:  []string{"2001"},
	}.Matches(m))
}

func TestMatchesMultiValueFieldsSplitOnComma(t *testing.T) {
	m := movieInfo("The Matrix")
	// "Action, Sci-Fi" must match on the trimmed parts, case-insensitively.
	assert.True(t, Criteria{Genres: []string{"sci-fi"}}.Matches(m))
	assert.True(t, Criteria{Languages: []string{"french"}}.Matches(m))
	assert.False(t, Criteria{Languages: []string{"German"}}.Matches(m))
}

func TestMatchesRatingBandFacet(t *testing.T) {
	m := movieInfo("The Matrix") // 8.7
	assert.True(t, Criteria{Ratings: []string{BandEightNine}}.Matches(m))
	assert.False(t, Criteria{Ratings: []string{BandNinePlus}}.Matches(m))

	m.ImdbRating = "N/A"
	assert.False(t, Criteria{Ratings: []string{BandBelowSeven}}.Matches(m))
}

// A movie that was never toggled has no status row; both flags read false
// and a set boolean facet excludes it.
func TestMatchesBooleanFlags(t *testing.T) {
	m := movieInfo("The Matrix")
	assert.True(t, Criteria{}.Matches(m))
	assert.False(t, Criteria{Favorite: true}.Matches(m))
	assert.False(t, Criteria{Watched: true}.Matches(m))

	m.IsFavorite = true
	assert.True(t, Criteria{Favorite: true}.Matches(m))
	assert.False(t, Criteria{Favorite: true, Watched: true}.Matches(m))
}

func TestMatchesCategoryFacet(t *testing.T) {
	catA := uuid.New()
	catB := uuid.New()
	m := movieInfo("The Matrix")
	m.CategoryIDs = []uuid.UUID{catA}

	assert.True(t, Criteria{CategoryIDs: []string{catA.String()}}.Matches(m))
	assert.True(t, Criteria{CategoryIDs: []string{catB.String(), catA.String()}}.Matches(m))
	assert.False(t, Criteria{CategoryIDs: []string{catB.String()}}.Matches(m))
}

func TestSplitMulti(t *testing.T) {
	assert.Equal(t, []string{"Action", "Sci-Fi"}, splitMulti("Action, Sci-Fi"))
	assert.Equal(t, []string{"Drama"}, splitMulti("Drama"))
	assert.Empty(t, splitMulti(""))
	assert.Equal(t, []string{"A", "B"}, splitMulti(" A ,, B "))
}
