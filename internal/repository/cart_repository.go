package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

var (
	ErrCartItemNotFound = apperror.New(apperror.ErrCodeNotFound, "товар отсутствует в корзине")
	ErrProductNotActive = apperror.New(apperror.ErrCodeBadRequest, "объявление недоступно для покупки")
	ErrCartQuantityCap  = apperror.Validation("количество не может превышать %d", validation.MaxCartQuantityPerItem)
)

var maxCartQuantity = decimal.NewFromInt(validation.MaxCartQuantityPerItem)

// CartRepository работает с корзинами. Изменения корзины сериализуются блокировкой строки carts.
type CartRepository struct {
	db *sqlx.DB
}

func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Get возвращает корзину пользователя, создавая её при первом обращении.
func (r *CartRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.GetContext(ctx, &cart, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at, updated_at
	`, userID); err != nil {
		return nil, fmt.Errorf("cart repository: get %w", err)
	}

	items := []models.CartItem{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT ci.id, ci.cart_id, ci.product_id, p.title AS product_title, p.status AS product_status,
			p.seller_id, p.price AS unit_price, ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at
	`, cart.ID); err != nil {
		return nil, fmt.Errorf("cart repository: list items %w", err)
	}

	cart.Total = decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].Quantity.Mul(items[i].UnitPrice).Round(2)
		cart.Total = cart.Total.Add(items[i].Subtotal)
	}
	cart.Items = items

	return &cart, nil
}

// AddItem добавляет товар или увеличивает его количество: quantity += delta.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, delta decimal.Decimal) error {
	return r.withLockedCart(ctx, userID, "add item", func(tx *sqlx.Tx, cartID uuid.UUID) error {
		var status string
		if err := tx.GetContext(ctx, &status, `SELECT status FROM products WHERE id = $1`, productID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			return err
		}
		if status != models.ProductStatusActive {
			return ErrProductNotActive
		}

		var current decimal.Decimal
		err := tx.GetContext(ctx, &current,
			`SELECT quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)`, cartID, productID, delta)
		case err == nil:
			merged := current.Add(delta)
			if merged.GreaterThan(maxCartQuantity) {
				return ErrCartQuantityCap
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`, cartID, productID, merged)
		}
		return err
	})
}

// SetQuantity задаёт количество товара. Нулевое или отрицательное значение удаляет позицию.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty decimal.Decimal) error {
	return r.withLockedCart(ctx, userID, "set quantity", func(tx *sqlx.Tx, cartID uuid.UUID) error {
		var res sql.Result
		var err error
		if qty.IsPositive() {
			res, err = tx.ExecContext(ctx,
				`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`, cartID, productID, qty)
		} else {
			res, err = tx.ExecContext(ctx,
				`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
		}
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrCartItemNotFound
		}
		return nil
	})
}

// RemoveItem удаляет товар из корзины.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return r.SetQuantity(ctx, userID, productID, decimal.Zero)
}

// Clear удаляет все позиции корзины.
func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.withLockedCart(ctx, userID, "clear", func(tx *sqlx.Tx, cartID uuid.UUID) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
		return err
	})
}

// withLockedCart гарантирует наличие корзины и блокирует её строку до конца транзакции.
func (r *CartRepository) withLockedCart(ctx context.Context, userID uuid.UUID, op string, fn func(tx *sqlx.Tx, cartID uuid.UUID) error) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
		); err != nil {
			return fmt.Errorf("ensure cart: %w", err)
		}

		var cartID uuid.UUID
		if err := tx.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}

		if err := fn(tx, cartID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
		return err
	})
	if err != nil {
		return wrapTxError("cart repository: "+op, err)
	}
	return nil
}
