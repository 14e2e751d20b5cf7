package store

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CategoryFilters narrows ListCategories results. Zero-valued fields
// are ignored; IsActive defaults to active-only when nil.
type CategoryFilters struct {
	AgeGroups []string
	Genders   []string
	ItemType  string
	IsActive  *bool
}

// CreateCategory inserts a new category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, age_group, gender, item_type, standard_value_new,
			standard_value_used, reorder_point, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return sqlx.GetContext(ctx, s.ext, c, query,
		c.Name, c.AgeGroup, c.Gender, c.ItemType, c.StandardValueNew,
		c.StandardValueUsed, c.ReorderPoint, c.DisplayOrder, c.IsActive)
}

// GetCategoryByID retrieves a category by ID
func (s *Store) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := sqlx.GetContext(ctx, s.ext, &c, "SELECT * FROM categories WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("category", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategoriesByIDs retrieves multiple categories by IDs
func (s *Store) GetCategoriesByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM categories WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.ext.Rebind(query)

	var categories []models.Category
	err = sqlx.SelectContext(ctx, s.ext, &categories, query, args...)
	return categories, err
}

// ListCategories retrieves categories matching the given filters,
// ordered by display_order
func (s *Store) ListCategories(ctx context.Context, filters CategoryFilters) ([]models.Category, error) {
	query := "SELECT * FROM categories WHERE 1=1"
	args := []interface{}{}

	active := true
	if filters.IsActive != nil {
		active = *filters.IsActive
	}
	query += " AND is_active = ?"
	args = append(args, active)

	if len(filters.AgeGroups) > 0 {
		query += " AND age_group IN (?)"
		args = append(args, filters.AgeGroups)
	}
	if len(filters.Genders) > 0 {
		query += " AND gender IN (?)"
		args = append(args, filters.Genders)
	}
	if filters.ItemType != "" {
		query += " AND item_type = ?"
		args = append(args, filters.ItemType)
	}
	query += " ORDER BY display_order ASC, name ASC"

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = s.ext.Rebind(query)

	var categories []models.Category
	err = sqlx.SelectContext(ctx, s.ext, &categories, query, expanded...)
	return categories, err
}

// UpdateCategory updates a category's mutable fields and returns the
// updated row
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, age_group = $2, gender = $3, item_type = $4,
			standard_value_new = $5, standard_value_used = $6,
			reorder_point = $7, display_order = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at`

	err := sqlx.GetContext(ctx, s.ext, &c.UpdatedAt, query,
		c.Name, c.AgeGroup, c.Gender, c.ItemType,
		c.StandardValueNew, c.StandardValueUsed,
		c.ReorderPoint, c.DisplayOrder, c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewNotFoundError("category", c.ID)
	}
	return err
}

// DeactivateCategory soft-deletes a category
func (s *Store) DeactivateCategory(ctx context.Context, id string) error {
	res, err := s.ext.ExecContext(ctx,
		"UPDATE categories SET is_active = false, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewNotFoundError("category", id)
	}
	return nil
}
