package repository

import (
	"database/sql"

	"github.com/filmshelf/filmshelf/internal/models"
)

// StatusRepository persists the per-movie favorite/watched flags.
// Rows are created lazily on first toggle and upserted thereafter.
type StatusRepository struct {
	db *sql.DB
}

func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) Upsert(s *models.UserStatus) error {
	query := `INSERT INTO user_statuses (imdb_id, is_favorite, is_watched, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (imdb_id) DO UPDATE SET
			is_favorite = excluded.is_favorite,
			is_watched  = excluded.is_watched,
			updated_at  = CURRENT_TIMESTAMP`
	_, err := r.db.Exec(query, s.ImdbID, s.IsFavorite, s.IsWatched)
	return err
}

// Get returns the status row, or nil when the movie was never toggled.
func (r *StatusRepository) Get(imdbID string) (*models.UserStatus, error) {
	s := &models.UserStatus{}
	query := `SELECT imdb_id, is_favorite, is_watched, updated_at FROM user_statuses WHERE imdb_id = ?`
	err := r.db.QueryRow(query, imdbID).Scan(&s.ImdbID, &s.IsFavorite, &s.IsWatched, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StatusRepository) GetAll() ([]*models.UserStatus, error) {
	rows, err := r.db.Query(`SELECT imdb_id, is_favorite, is_watched, updated_at FROM user_statuses`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*models.UserStatus
	for rows.Next() {
		s := &models.UserStatus{}
		if err := rows.Scan(&s.ImdbID, &s.IsFavorite, &s.IsWatched, &s.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func (r *StatusRepository) Delete(imdbID string) error {
	_, err := r.db.Exec(`DELETE FROM user_statuses WHERE imdb_id = ?`, imdbID)
	return err
}

func (r *StatusRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM user_statuses`)
	return err
}

// DeleteOrphans removes statuses whose movie detail record is gone.
func (r *StatusRepository) DeleteOrphans() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM user_statuses
		WHERE imdb_id NOT IN (SELECT imdb_id FROM movie_details)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
