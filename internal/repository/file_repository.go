package repository

import (
	"database/sql"

	"github.com/filmshelf/filmshelf/internal/models"
)

// FileRepository persists imported file records. FileName is the key used
// for the "already processed" existence check during batch resolution.
type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Exists(fileName string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM file_records WHERE file_name = ?`, fileName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *FileRepository) Create(f *models.FileRecord) error {
	query := `INSERT INTO file_records (file_name, title, year) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, f.FileName, f.Title, f.Year); err != nil {
		return err
	}
	return r.db.QueryRow(`SELECT created_at FROM file_records WHERE file_name = ?`,
		f.FileName).Scan(&f.CreatedAt)
}

func (r *FileRepository) GetByFileName(fileName string) (*models.FileRecord, error) {
	f := &models.FileRecord{}
	query := `SELECT file_name, title, year, created_at FROM file_records WHERE file_name = ?`
	err := r.db.QueryRow(query, fileName).Scan(&f.FileName, &f.Title, &f.Year, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FileRepository) GetAll() ([]*models.FileRecord, error) {
	rows, err := r.db.Query(`SELECT file_name, title, year, created_at FROM file_records ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.FileRecord
	for rows.Next() {
		f := &models.FileRecord{}
		if err := rows.Scan(&f.FileName, &f.Title, &f.Year, &f.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, f)
	}
	return records, rows.Err()
}

func (r *FileRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM file_records`)
	return err
}
