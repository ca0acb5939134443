package repository

import (
	"database/sql"

	"github.com/filmshelf/filmshelf/internal/models"
)

// PosterRepository stores one compressed poster image per movie.
type PosterRepository struct {
	db *sql.DB
}

func NewPosterRepository(db *sql.DB) *PosterRepository {
	return &PosterRepository{db: db}
}

func (r *PosterRepository) Exists(imdbID string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM posters WHERE imdb_id = ?`, imdbID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *PosterRepository) Create(p *models.Poster) error {
	query := `INSERT INTO posters (imdb_id, title, url, mime, image) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (imdb_id) DO NOTHING`
	_, err := r.db.Exec(query, p.ImdbID, p.Title, p.URL, p.Mime, p.Image)
	return err
}

func (r *PosterRepository) Get(imdbID string) (*models.Poster, error) {
	p := &models.Poster{}
	query := `SELECT imdb_id, title, url, mime, image FROM posters WHERE imdb_id = ?`
	err := r.db.QueryRow(query, imdbID).Scan(&p.ImdbID, &p.Title, &p.URL, &p.Mime, &p.Image)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetAllIDs returns the imdb IDs that have a stored poster. The library
// reload join only needs presence, not the image bytes.
func (r *PosterRepository) GetAllIDs() (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT imdb_id FROM posters`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *PosterRepository) Delete(imdbID string) error {
	_, err := r.db.Exec(`DELETE FROM posters WHERE imdb_id = ?`, imdbID)
	return err
}

func (r *PosterRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM posters`)
	return err
}

// DeleteOrphans removes posters whose movie detail record is gone.
func (r *PosterRepository) DeleteOrphans() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM posters
		WHERE imdb_id NOT IN (SELECT imdb_id FROM movie_details)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
