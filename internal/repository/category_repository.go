package repository

import (
	"database/sql"
	"fmt"

	"github.com/filmshelf/filmshelf/internal/models"
	"github.com/google/uuid"
)

// CategoryRepository manages categories and the movie/category link table.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// EnsureSystem creates the protected system categories if they are missing.
// Called once at startup; safe to call repeatedly.
func (r *CategoryRepository) EnsureSystem() error {
	for _, name := range []string{models.CategorySearched, models.CategoryUploaded} {
		existing, err := r.GetByName(name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		c := &models.Category{ID: uuid.New(), Name: name, IsSystem: true}
		if err := r.Create(c); err != nil {
			return fmt.Errorf("ensure system category %q: %w", name, err)
		}
	}
	return nil
}

func (r *CategoryRepository) Create(c *models.Category) error {
	query := `INSERT INTO categories (id, name, is_system) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, c.ID.String(), c.Name, c.IsSystem); err != nil {
		return err
	}
	return r.db.QueryRow(`SELECT created_at FROM categories WHERE id = ?`,
		c.ID.String()).Scan(&c.CreatedAt)
}

func scanCategory(row interface{ Scan(...interface{}) error }) (*models.Category, error) {
	c := &models.Category{}
	var id string
	if err := row.Scan(&id, &c.Name, &c.IsSystem, &c.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad category id %q: %w", id, err)
	}
	c.ID = parsed
	return c, nil
}

func (r *CategoryRepository) GetByID(id uuid.UUID) (*models.Category, error) {
	row := r.db.QueryRow(`SELECT id, name, is_system, created_at FROM categories WHERE id = ?`,
		id.String())
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByName matches case-insensitively, mirroring the unique index.
func (r *CategoryRepository) GetByName(name string) (*models.Category, error) {
	row := r.db.QueryRow(`SELECT id, name, is_system, created_at FROM categories
		WHERE name = ? COLLATE NOCASE`, name)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CategoryRepository) GetAll() ([]*models.Category, error) {
	rows, err := r.db.Query(`SELECT id, name, is_system, created_at FROM categories
		ORDER BY is_system DESC, name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Rename(id uuid.UUID, name string) error {
	result, err := r.db.Exec(`UPDATE categories SET name = ? WHERE id = ?`, name, id.String())
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

// Delete removes a category and, via cascade, its movie links.
func (r *CategoryRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

// DeleteUserCategories removes every non-system category. System categories
// survive a library clear regardless of the keep-categories option.
func (r *CategoryRepository) DeleteUserCategories() error {
	_, err := r.db.Exec(`DELETE FROM categories WHERE is_system = 0`)
	return err
}

// ──────────────────── Movie ↔ Category Links ────────────────────

// Link tags a movie with a category. Linking an already-linked pair is a
// no-op.
func (r *CategoryRepository) Link(imdbID string, categoryID uuid.UUID) error {
	query := `INSERT INTO movie_categories (imdb_id, category_id) VALUES (?, ?)
		ON CONFLICT (imdb_id, category_id) DO NOTHING`
	_, err := r.db.Exec(query, imdbID, categoryID.String())
	return err
}

func (r *CategoryRepository) Unlink(imdbID string, categoryID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM movie_categories WHERE imdb_id = ? AND category_id = ?`,
		imdbID, categoryID.String())
	return err
}

func (r *CategoryRepository) IsLinked(imdbID string, categoryID uuid.UUID) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM movie_categories WHERE imdb_id = ? AND category_id = ?`,
		imdbID, categoryID.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// GetAllLinks returns every link row, for the library reload join.
func (r *CategoryRepository) GetAllLinks() ([]*models.MovieCategory, error) {
	rows, err := r.db.Query(`SELECT imdb_id, category_id FROM movie_categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.MovieCategory
	for rows.Next() {
		var imdbID, catID string
		if err := rows.Scan(&imdbID, &catID); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(catID)
		if err != nil {
			return nil, fmt.Errorf("bad category id %q: %w", catID, err)
		}
		links = append(links, &models.MovieCategory{ImdbID: imdbID, CategoryID: parsed})
	}
	return links, rows.Err()
}

func (r *CategoryRepository) DeleteLinksForMovie(imdbID string) error {
	_, err := r.db.Exec(`DELETE FROM movie_categories WHERE imdb_id = ?`, imdbID)
	return err
}

func (r *CategoryRepository) DeleteAllLinks() error {
	_, err := r.db.Exec(`DELETE FROM movie_categories`)
	return err
}

// DeleteOrphanLinks removes links whose movie detail record is gone.
// Category-side orphans are handled by the delete cascade.
func (r *CategoryRepository) DeleteOrphanLinks() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM movie_categories
		WHERE imdb_id NOT IN (SELECT imdb_id FROM movie_details)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
