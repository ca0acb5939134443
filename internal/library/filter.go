package library

import (
	"strconv"
	"strings"

	"github.com/filmshelf/filmshelf/internal/models"
)

// Filtering is pure: facets combine with AND, values inside one facet with
// OR. Multi-value detail fields (genre, language, country) are comma lists
// and are split and trimmed before matching.

// Criteria describes one filter request from the view layer.
type Criteria struct {
	Query       string   `json:"query"`
	Genres      []string `json:"genres"`
	Years       []string `json:"years"`
	Ratings     []string `json:"ratings"` // rating bands, see RatingBand
	Languages   []string `json:"languages"`
	Countries   []string `json:"countries"`
	CategoryIDs []string `json:"category_ids"`
	Favorite    bool     `json:"favorite"`
	Watched     bool     `json:"watched"`
}

// Rating band labels for the rating facet.
const (
	BandNinePlus   = "9+"
	BandEightNine  = "8-9"
	BandSevenEight = "7-8"
	BandBelowSeven = "<7"
)

// RatingBand buckets an IMDB rating string into its facet band. Unparsable
// ratings ("N/A") yield an empty band that matches nothing.
func RatingBand(rating string) string {
	v, err := strconv.ParseFloat(rating, 64)
	if err != nil {
		return ""
	}
	switch {
	case v >= 9:
		return BandNinePlus
	case v >= 8:
		return BandEightNine
	case v >= 7:
		return BandSevenEight
	default:
		return BandBelowSeven
	}
}

// splitMulti turns a comma-separated detail field into trimmed values.
func splitMulti(field string) []string {
	parts := strings.Split(field, ",")
	out := parts[:0]
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// anyEqualFold reports whether any selected value matches any field value,
// case-insensitively.
func anyEqualFold(selected, values []string) bool {
	for _, s := range selected {
		for _, v := range values {
			if strings.EqualFold(s, v) {
				return true
			}
		}
	}
	return false
}

// Matches reports whether a movie satisfies every specified facet.
func (c Criteria) Matches(m *models.MovieInfo) bool {
	if c.Query != "" &&
		!strings.Contains(strings.ToLower(m.Title), strings.ToLower(c.Query)) {
		return false
	}
	if len(c.Genres) > 0 && !anyEqualFold(c.Genres, splitMulti(m.Genre)) {
		return false
	}
	if len(c.Years) > 0 && !anyEqualFold(c.Years, []string{m.Year}) {
		return false
	}
	if len(c.Ratings) > 0 && !anyEqualFold(c.Ratings, []string{RatingBand(m.ImdbRating)}) {
		return false
	}
	if len(c.Languages) > 0 && !anyEqualFold(c.Languages, splitMulti(m.Language)) {
		return false
	}
	if len(c.Countries) > 0 && !anyEqualFold(c.Countries, splitMulti(m.Country)) {
		return false
	}
	if len(c.CategoryIDs) > 0 {
		var ids []string
		for _, id := range m.CategoryIDs {
			ids = append(ids, id.String())
		}
		if !anyEqualFold(c.CategoryIDs, ids) {
			return false
		}
	}
	// Unset boolean facets pass everything; a movie without a status row
	// reads as false and fails a set flag.
	if c.Favorite && !m.IsFavorite {
		return false
	}
	if c.Watched && !m.IsWatched {
		return false
	}
	return true
}

// Facets holds the distinct values present in the library, for the UI's
// filter dropdowns.
type Facets struct {
	Genres    []string `json:"genres"`
	Years     []string `json:"years"`
	Ratings   []string `json:"ratings"`
	Languages []string `json:"languages"`
	Countries []string `json:"countries"`
}
