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
)

// MediaRepository работает с таблицей product_images.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository создаёт экземпляр.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// ErrImageNotFound сигнализирует об отсутствии фотографии.
var ErrImageNotFound = apperror.New(apperror.ErrCodeNotFound, "изображение не найдено")

// Create сохраняет запись о фотографии. Новая основная фотография снимает флаг с предыдущей.
func (r *MediaRepository) Create(ctx context.Context, img *models.ProductImage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("media repository: begin %w", err)
	}
	defer tx.Rollback()

	if img.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE product_images SET is_primary = FALSE WHERE product_id = $1 AND is_primary`, img.ProductID,
		); err != nil {
			return fmt.Errorf("media repository: reset primary %w", err)
		}
	}

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO product_images (product_id, file_path, file_type, file_size, is_primary, sort_order)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(sort_order), -1) + 1 FROM product_images WHERE product_id = $1))
		RETURNING id, sort_order, created_at
	`, img.ProductID, img.FilePath, img.FileType, img.FileSize, img.IsPrimary,
	).Scan(&img.ID, &img.SortOrder, &img.CreatedAt); err != nil {
		return fmt.Errorf("media repository: create %w", err)
	}

	return tx.Commit()
}

// GetByID возвращает запись о фотографии.
func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProductImage, error) {
	var img models.ProductImage
	if err := r.db.GetContext(ctx, &img, `SELECT * FROM product_images WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("media repository: get by id %w", err)
	}
	return &img, nil
}

// ListByProduct возвращает фотографии объявления, основная первой.
func (r *MediaRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	if err := r.db.SelectContext(ctx, &images, `
		SELECT * FROM product_images WHERE product_id = $1 ORDER BY is_primary DESC, sort_order
	`, productID); err != nil {
		return nil, fmt.Errorf("media repository: list by product %w", err)
	}
	return images, nil
}

// Delete удаляет запись о фотографии.
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = $1`, id); err != nil {
		return fmt.Errorf("media repository: delete %w", err)
	}
	return nil
}
