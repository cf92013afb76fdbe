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

var ErrWishlistItemNotFound = apperror.New(apperror.ErrCodeNotFound, "объявление отсутствует в избранном")

type WishlistRepository struct {
	db *sqlx.DB
}

func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Toggle добавляет объявление в избранное или убирает его оттуда.
// Счётчик saves объявления меняется в той же транзакции. Возвращает true, если объявление сохранено.
func (r *WishlistRepository) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var saved bool
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID); err != nil {
			return err
		}
		if !exists {
			return ErrProductNotFound
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
		if err != nil {
			return err
		}
		removed, _ := res.RowsAffected()

		delta := -1
		if removed == 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)
				ON CONFLICT (user_id, product_id) DO NOTHING
			`, userID, productID); err != nil {
				return err
			}
			delta = 1
			saved = true
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET saves = GREATEST(saves + $2, 0) WHERE id = $1`, productID, delta)
		return err
	})
	if err != nil {
		return false, wrapTxError("wishlist repository: toggle", err)
	}
	return saved, nil
}

// Remove убирает объявление из избранного.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrWishlistItemNotFound
		}
		_, err = tx.ExecContext(ctx, `UPDATE products SET saves = GREATEST(saves - 1, 0) WHERE id = $1`, productID)
		return err
	})
	if err != nil {
		return wrapTxError("wishlist repository: remove", err)
	}
	return nil
}

// ListProducts возвращает сохранённые объявления пользователя.
func (r *WishlistRepository) ListProducts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, `
		SELECT p.id, p.seller_id, p.category_id, p.title, p.description, p.condition, p.quantity, p.unit_of_measure,
			p.price, p.market_price, p.weight_per_unit, p.dimensions, p.location_lat, p.location_long, p.location_name,
			p.status, p.views, p.saves, p.created_at, p.updated_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wishlist repository: list %w", err)
	}
	return products, nil
}

// Exists сообщает, сохранено ли объявление пользователем.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)
	`, userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists, err
}
