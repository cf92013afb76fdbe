package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/metrics"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

var (
	ErrMixedSellers      = apperror.New(apperror.ErrCodeBadRequest, "все позиции заказа должны быть от одного продавца")
	ErrOwnProduct        = apperror.New(apperror.ErrCodeBadRequest, "нельзя купить собственное объявление")
	ErrInsufficientStock = apperror.New(apperror.ErrCodeConflict, "недостаточно товара в наличии")
	ErrNotOrderSeller    = apperror.New(apperror.ErrCodeForbidden, "статус доставки меняет только продавец")
	ErrNotOrderBuyer     = apperror.New(apperror.ErrCodeForbidden, "получение подтверждает только покупатель")
	ErrOrderClosed       = apperror.New(apperror.ErrCodeConflict, "заказ уже закрыт")
)

// OrderRepository описывает хранилище заказов.
type OrderRepository interface {
	Create(ctx context.Context, in models.CreateOrderInput, prepare repository.OrderPrepareFunc) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, asSeller bool, limit, offset int) ([]models.Order, error)
	UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status string) error
}

// EscrowRepository управляет удержанием средств по заказу.
type EscrowRepository interface {
	ReleaseOnDelivery(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type OrderService struct {
	orders   OrderRepository
	escrow   EscrowRepository
	notifier Notifier
	taxRate  decimal.Decimal
}

func NewOrderService(orders OrderRepository, escrow EscrowRepository, notifier Notifier, taxRate decimal.Decimal) *OrderService {
	return &OrderService{
		orders:   orders,
		escrow:   escrow,
		notifier: notifierOrNop(notifier),
		taxRate:  taxRate,
	}
}

// Create оформляет заказ. Проверки остатков и расчёт суммы выполняются под блокировкой объявлений.
func (s *OrderService) Create(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, in, func(locked map[uuid.UUID]models.Product) (*models.Order, error) {
		return buildOrder(in, locked, s.taxRate)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderCreated()
	logger.WithComponent("orders").WithFields(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.BuyerID,
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("заказ оформлен")

	notify(s.notifier, order.SellerID, ws.EventOrderCreated, map[string]any{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
	})
	return order, nil
}

// Get возвращает заказ участнику сделки или администратору.
func (s *OrderService) Get(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParticipant(userID) && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID uuid.UUID, asSeller bool, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByParticipant(ctx, userID, asSeller, limit, offset)
}

// UpdateDeliveryStatus меняет статус доставки. ready_for_pickup допустим только для самовывоза, shipped только для доставки.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, sellerID, orderID uuid.UUID, status string) (*models.Order, error) {
	if _, err := valueobject.NewDeliveryStatus(status); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, ErrNotOrderSeller
	}
	if valueobject.EscrowStatus(order.EscrowStatus).IsFinal() {
		return nil, ErrOrderClosed
	}

	switch {
	case status == models.DeliveryStatusReadyForPickup && order.DeliveryMethod != models.DeliveryPickup:
		return nil, apperror.Validation("статус ready_for_pickup доступен только для самовывоза")
	case status == models.DeliveryStatusShipped && order.DeliveryMethod != models.DeliveryCarrier:
		return nil, apperror.Validation("статус shipped доступен только для доставки перевозчиком")
	}

	if err := s.orders.UpdateDeliveryStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.DeliveryStatus = status

	notify(s.notifier, order.BuyerID, ws.EventOrderDelivery, map[string]any{
		"order_id":        order.ID,
		"delivery_status": status,
	})
	return order, nil
}

// Confirm подтверждает получение: средства переводятся продавцу.
func (s *OrderService) Confirm(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, ErrNotOrderBuyer
	}

	updated, err := s.escrow.ReleaseOnDelivery(ctx, orderID)
	if err != nil {
		return nil, err
	}
	updated.Items = order.Items

	notify(s.notifier, updated.SellerID, ws.EventOrderConfirmed, map[string]any{
		"order_id":      updated.ID,
		"escrow_status": updated.EscrowStatus,
	})
	return updated, nil
}

func validateOrderInput(in models.CreateOrderInput) error {
	if len(in.Lines) == 0 {
		return apperror.Validation("заказ должен содержать хотя бы одну позицию")
	}
	if err := validation.ValidateOneOf("delivery_method", in.DeliveryMethod, map[string]struct{}{
		models.DeliveryCarrier: {},
		models.DeliveryPickup:  {},
	}); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]struct{}, len(in.Lines))
	for i, line := range in.Lines {
		if line.ProductID == uuid.Nil {
			return apperror.Validation("позиция %d: не указан product_id", i+1)
		}
		if _, dup := seen[line.ProductID]; dup {
			return apperror.Validation("позиция %d: объявление указано повторно", i+1)
		}
		seen[line.ProductID] = struct{}{}
		if _, err := valueobject.NormalizeAmount("quantity", line.Quantity); err != nil {
			return err
		}
		if !line.Quantity.IsPositive() {
			return apperror.Validation("позиция %d: количество должно быть положительным", i+1)
		}
	}
	return nil
}

// buildOrder проверяет заблокированные объявления и фиксирует цены позиций.
func buildOrder(in models.CreateOrderInput, locked map[uuid.UUID]models.Product, taxRate decimal.Decimal) (*models.Order, error) {
	var sellerID uuid.UUID
	lines := make([]valueobject.LineInput, 0, len(in.Lines))
	titles := make(map[uuid.UUID]string, len(in.Lines))

	for _, line := range in.Lines {
		product, ok := locked[line.ProductID]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		if product.Status != models.ProductStatusActive {
			return nil, repository.ErrProductNotActive
		}
		if product.Quantity.LessThan(line.Quantity) {
			return nil, fmt.Errorf("%w: %s (доступно %s)", ErrInsufficientStock, product.Title, product.Quantity.String())
		}
		if product.SellerID == in.BuyerID {
			return nil, ErrOwnProduct
		}
		if sellerID == uuid.Nil {
			sellerID = product.SellerID
		} else if sellerID != product.SellerID {
			return nil, ErrMixedSellers
		}

		titles[product.ID] = product.Title
		lines = append(lines, valueobject.LineInput{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	totals, err := valueobject.CalculateTotals(lines, taxRate)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		BuyerID:        in.BuyerID,
		SellerID:       sellerID,
		ProjectID:      in.ProjectID,
		TotalAmount:    totals.Total,
		TaxAmount:      totals.Tax,
		DeliveryMethod: in.DeliveryMethod,
		DeliveryStatus: models.DeliveryStatusPending,
		EscrowStatus:   models.EscrowStatusHeld,
		Items:          make([]models.OrderItem, 0, len(totals.Lines)),
	}
	for _, line := range totals.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:       line.ProductID,
			ProductTitle:    titles[line.ProductID],
			Quantity:        line.Quantity,
			PriceAtPurchase: line.UnitPrice,
			Subtotal:        line.Subtotal,
		})
	}
	return order, nil
}
