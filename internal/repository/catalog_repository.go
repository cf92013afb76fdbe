package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

var (
	ErrCategoryNotFound = apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
	ErrCategoryExists   = apperror.New(apperror.ErrCodeConflict, "категория с таким названием уже существует")
)

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const categoryColumns = "id, name, icon, created_at"

// ListCategories возвращает все категории по алфавиту.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `
		SELECT `+categoryColumns+` FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}

// GetCategoryByID возвращает категорию по ID.
func (r *CatalogRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return common.GetByID[models.Category](ctx, r.db, "categories", categoryColumns, id, ErrCategoryNotFound)
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO categories (name, icon) VALUES ($1, $2)
		RETURNING id, created_at
	`, c.Name, c.Icon).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("catalog repository: create category %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE categories SET name = $2, icon = $3 WHERE id = $1
		RETURNING created_at
	`, c.ID, c.Name, c.Icon).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCategoryNotFound
		}
		if common.IsUniqueViolation(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("catalog repository: update category %w", err)
	}
	return nil
}

// DeleteCategory удаляет категорию, объявления остаются без категории.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog repository: delete category %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
