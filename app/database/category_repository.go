package database

import (
	"database/sql"
	"fmt"
)

type CategoryRepo struct {
	db *DB
}

var _ CategoryRepository = (*CategoryRepo)(nil)

func NewCategoryRepo(db *DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// GetOrCreate returns the category with the given name, creating it first if
// it does not exist. Safe to call repeatedly before every ingestion run.
func (r *CategoryRepo) GetOrCreate(name, description string) (*Category, error) {
	existing, err := r.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	res, err := r.db.Exec(`
		INSERT INTO categories (name, description)
		VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
	`, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil && id > 0 {
		return &Category{ID: id, Name: name, Description: description}, nil
	}

	// Lost a race with a concurrent insert; read back the winner.
	return r.GetByName(name)
}

func (r *CategoryRepo) GetByName(name string) (*Category, error) {
	var category Category
	err := r.db.QueryRow(`
		SELECT id, name, description, created_at
		FROM categories
		WHERE name = ?
	`, name).Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepo) List() ([]Category, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepo) GetCategoryCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get category count: %w", err)
	}
	return count, nil
}
