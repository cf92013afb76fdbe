package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

// OrderRepository отвечает за работу с заказами и их позициями.
type OrderRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrOrderNotFound = apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	// ErrOrderSelfPurchase срабатывает на CHECK orders_buyer_not_seller.
	ErrOrderSelfPurchase = apperror.New(apperror.ErrCodeBadRequest, "покупатель и продавец совпадают")
)

const orderColumns = `id, buyer_id, seller_id, project_id, total_amount, tax_amount, delivery_method,
	delivery_status, escrow_status, created_at, updated_at`

// OrderPrepareFunc проверяет заблокированные объявления и собирает заказ с позициями.
// Вызывается внутри транзакции создания заказа.
type OrderPrepareFunc func(locked map[uuid.UUID]models.Product) (*models.Order, error)

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет заказ и позиции в одной транзакции.
// Объявления блокируются FOR UPDATE, остаток списывается, купленные товары убираются из корзины покупателя.
func (r *OrderRepository) Create(ctx context.Context, in models.CreateOrderInput, prepare OrderPrepareFunc) (*models.Order, error) {
	ids := make([]uuid.UUID, 0, len(in.Lines))
	for _, line := range in.Lines {
		ids = append(ids, line.ProductID)
	}

	var order *models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		locked, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		if in.ProjectID != nil {
			var ownerID uuid.UUID
			if err := tx.GetContext(ctx, &ownerID, `SELECT owner_id FROM projects WHERE id = $1`, *in.ProjectID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrProjectNotFound
				}
				return fmt.Errorf("get project: %w", err)
			}
			if ownerID != in.BuyerID {
				return ErrProjectNotFound
			}
		}

		order, err = prepare(locked)
		if err != nil {
			return err
		}

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (buyer_id, seller_id, project_id, total_amount, tax_amount, delivery_method, delivery_status, escrow_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at
		`, order.BuyerID, order.SellerID, order.ProjectID, order.TotalAmount, order.TaxAmount,
			order.DeliveryMethod, order.DeliveryStatus, order.EscrowStatus,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			if common.IsCheckViolation(err) {
				return ErrOrderSelfPurchase
			}
			return fmt.Errorf("insert order: %w", err)
		}

		inserter := common.NewBatchInserter(tx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, subtotal)`, 6, 100)
		for i := range order.Items {
			item := &order.Items[i]
			item.ID = uuid.New()
			item.OrderID = order.ID
			if err := inserter.Add(ctx, item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase, item.Subtotal); err != nil {
				return err
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return err
		}

		for _, item := range order.Items {
			if _, err := tx.ExecContext(ctx, `
				UPDATE products
				SET quantity = quantity - $2,
					status = CASE WHEN quantity - $2 <= 0 THEN 'sold' ELSE status END,
					updated_at = NOW()
				WHERE id = $1
			`, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cart_items
			WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1) AND product_id = ANY($2)
		`, order.BuyerID, pq.Array(ids)); err != nil {
			return fmt.Errorf("clear purchased cart items: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, wrapTxError("order repository: create", err)
	}

	return order, nil
}

// GetByID возвращает заказ с позициями.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	items, err := r.listItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

// ListByParticipant возвращает заказы, где пользователь покупатель (asSeller=false) или продавец.
func (r *OrderRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, asSeller bool, limit, offset int) ([]models.Order, error) {
	column := "buyer_id"
	if asSeller {
		column = "seller_id"
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
}

// ListByProject возвращает заказы проекта.
func (r *OrderRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// listItems загружает позиции нескольких заказов одним запросом.
func (r *OrderRepository) listItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_id, oi.product_id, p.title AS product_title, oi.quantity, oi.price_at_purchase, oi.subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, p.title
	`, pq.Array(orderIDs)); err != nil {
		return nil, fmt.Errorf("order repository: list items %w", err)
	}

	out := make(map[uuid.UUID][]models.OrderItem, len(orderIDs))
	for _, item := range items {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

// UpdateDeliveryStatus меняет статус доставки заказа продавца.
func (r *OrderRepository) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET delivery_status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, status)
	if err != nil {
		return fmt.Errorf("order repository: update delivery status %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
