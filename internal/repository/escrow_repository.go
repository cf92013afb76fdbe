package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

var ErrEscrowNotHeld = apperror.New(apperror.ErrCodeConflict, "средства по заказу уже не удерживаются")

// EscrowRepository меняет статус удержания средств по заказу.
type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// ReleaseOnDelivery подтверждает получение заказа покупателем и переводит средства продавцу.
func (r *EscrowRepository) ReleaseOnDelivery(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if valueobject.EscrowStatus(order.EscrowStatus) != valueobject.EscrowStatusHeld {
			return ErrEscrowNotHeld
		}

		if err := tx.QueryRowxContext(ctx, `
			UPDATE orders
			SET delivery_status = $2, escrow_status = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING delivery_status, escrow_status, updated_at
		`, orderID, models.DeliveryStatusDelivered, models.EscrowStatusReleased,
		).Scan(&order.DeliveryStatus, &order.EscrowStatus, &order.UpdatedAt); err != nil {
			return fmt.Errorf("release escrow: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET total_sales = total_sales + 1, updated_at = NOW() WHERE id = $1`, order.SellerID,
		); err != nil {
			return fmt.Errorf("increment seller sales: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError("escrow repository: release on delivery", err)
	}
	return order, nil
}

// lockOrder читает заказ с блокировкой строки.
func lockOrder(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := tx.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return &order, nil
}

// setEscrowStatus обновляет статус escrow внутри уже открытой транзакции.
func setEscrowStatus(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID, status valueobject.EscrowStatus) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET escrow_status = $2, updated_at = NOW() WHERE id = $1`, orderID, string(status),
	); err != nil {
		return fmt.Errorf("set escrow status: %w", err)
	}
	return nil
}

// wrapTxError пропускает доменные ошибки без изменений и оборачивает остальные.
func wrapTxError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s %w", op, err)
}
