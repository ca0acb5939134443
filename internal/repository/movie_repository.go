package repository

import (
	"database/sql"

	"github.com/filmshelf/filmshelf/internal/models"
)

const movieColumns = `imdb_id, title, year, rated, runtime, genre, plot, language,
	country, awards, poster_url, metascore, imdb_rating, imdb_votes, type, created_at`

// MovieRepository persists canonical movie detail records keyed by IMDB ID.
type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func scanMovie(row interface{ Scan(...interface{}) error }) (*models.MovieDetail, error) {
	m := &models.MovieDetail{}
	err := row.Scan(&m.ImdbID, &m.Title, &m.Year, &m.Rated, &m.Runtime, &m.Genre,
		&m.Plot, &m.Language, &m.Country, &m.Awards, &m.PosterURL,
		&m.Metascore, &m.ImdbRating, &m.ImdbVotes, &m.Type, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MovieRepository) Exists(imdbID string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM movie_details WHERE imdb_id = ?`, imdbID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a detail record. Details are immutable once stored, so a
// conflicting insert for the same imdbID is ignored rather than updated.
func (r *MovieRepository) Create(m *models.MovieDetail) error {
	query := `INSERT INTO movie_details (imdb_id, title, year, rated, runtime, genre, plot,
		language, country, awards, poster_url, metascore, imdb_rating, imdb_votes, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (imdb_id) DO NOTHING`
	_, err := r.db.Exec(query, m.ImdbID, m.Title, m.Year, m.Rated, m.Runtime, m.Genre,
		m.Plot, m.Language, m.Country, m.Awards, m.PosterURL,
		m.Metascore, m.ImdbRating, m.ImdbVotes, m.Type)
	return err
}

func (r *MovieRepository) GetByID(imdbID string) (*models.MovieDetail, error) {
	row := r.db.QueryRow(`SELECT `+movieColumns+` FROM movie_details WHERE imdb_id = ?`, imdbID)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// GetByTitle returns the first detail record with a case-insensitive exact
// title match, used to report pre-existing movies back to the caller.
func (r *MovieRepository) GetByTitle(title string) (*models.MovieDetail, error) {
	row := r.db.QueryRow(`SELECT `+movieColumns+` FROM movie_details
		WHERE title = ? COLLATE NOCASE LIMIT 1`, title)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *MovieRepository) GetAll() ([]*models.MovieDetail, error) {
	rows, err := r.db.Query(`SELECT ` + movieColumns + ` FROM movie_details ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []*models.MovieDetail
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

func (r *MovieRepository) Delete(imdbID string) error {
	_, err := r.db.Exec(`DELETE FROM movie_details WHERE imdb_id = ?`, imdbID)
	return err
}

func (r *MovieRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM movie_details`)
	return err
}
