package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

func activeProduct(seller uuid.UUID, price, qty string) models.Product {
	return models.Product{
		ID:       uuid.New(),
		SellerID: seller,
		Title:    "Oak flooring",
		Price:    dec(price),
		Quantity: dec(qty),
		Status:   models.ProductStatusActive,
	}
}

func TestBuildOrder_CapturesPricesAndTax(t *testing.T) {
	seller, buyer := uuid.New(), uuid.New()
	a := activeProduct(seller, "18.50", "40")
	b := activeProduct(seller, "4.99", "10")

	in := models.CreateOrderInput{
		BuyerID:        buyer,
		DeliveryMethod: models.DeliveryPickup,
		Lines: []models.OrderLine{
			{ProductID: a.ID, Quantity: dec("12")},
			{ProductID: b.ID, Quantity: dec("3")},
		},
	}

	order, err := buildOrder(in, map[uuid.UUID]models.Product{a.ID: a, b.ID: b}, valueobject.DefaultTaxRate)
	require.NoError(t, err)

	assert.Equal(t, seller, order.SellerID)
	assert.Equal(t, "236.97", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "49.76", order.TaxAmount.StringFixed(2))
	assert.Equal(t, models.EscrowStatusHeld, order.EscrowStatus)
	assert.Equal(t, models.DeliveryStatusPending, order.DeliveryStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "18.5", order.Items[0].PriceAtPurchase.String())
	assert.Equal(t, "222", order.Items[0].Subtotal.String())
}

func TestBuildOrder_Rejections(t *testing.T) {
	seller, buyer := uuid.New(), uuid.New()
	ok := activeProduct(seller, "10", "5")
	other := activeProduct(uuid.New(), "10", "5")
	own := activeProduct(buyer, "10", "5")
	sold := activeProduct(seller, "10", "5")
	sold.Status = models.ProductStatusSold

	locked := map[uuid.UUID]models.Product{ok.ID: ok, other.ID: other, own.ID: own, sold.ID: sold}

	tests := []struct {
		name  string
		lines []models.OrderLine
		want  error
	}{
		{"mixed sellers", []models.OrderLine{{ProductID: ok.ID, Quantity: dec("1")}, {ProductID: other.ID, Quantity: dec("1")}}, ErrMixedSellers},
		{"own product", []models.OrderLine{{ProductID: own.ID, Quantity: dec("1")}}, ErrOwnProduct},
		{"not active", []models.OrderLine{{ProductID: sold.ID, Quantity: dec("1")}}, repository.ErrProductNotActive},
		{"missing", []models.OrderLine{{ProductID: uuid.New(), Quantity: dec("1")}}, repository.ErrProductNotFound},
		{"insufficient stock", []models.OrderLine{{ProductID: ok.ID, Quantity: dec("5.01")}}, ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := models.CreateOrderInput{BuyerID: buyer, DeliveryMethod: models.DeliveryCarrier, Lines: tt.lines}
			_, err := buildOrder(in, locked, valueobject.DefaultTaxRate)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestOrderService_CreateValidatesBeforeRepository(t *testing.T) {
	repo := new(mockOrderRepo)
	svc := NewOrderService(repo, new(mockEscrowRepo), nil, valueobject.DefaultTaxRate)

	_, err := svc.Create(context.Background(), models.CreateOrderInput{BuyerID: uuid.New(), DeliveryMethod: models.DeliveryPickup})
	assert.True(t, apperror.IsValidation(err))

	productID := uuid.New()
	_, err = svc.Create(context.Background(), models.CreateOrderInput{
		BuyerID:        uuid.New(),
		DeliveryMethod: models.DeliveryPickup,
		Lines: []models.OrderLine{
			{ProductID: productID, Quantity: dec("1")},
			{ProductID: productID, Quantity: dec("2")},
		},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(context.Background(), models.CreateOrderInput{
		BuyerID:        uuid.New(),
		DeliveryMethod: "drone",
		Lines:          []models.OrderLine{{ProductID: productID, Quantity: dec("1")}},
	})
	assert.True(t, apperror.IsValidation(err))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateRunsPrepareAndNotifiesSeller(t *testing.T) {
	repo := new(mockOrderRepo)
	notifier := &recordingNotifier{}
	svc := NewOrderService(repo, new(mockEscrowRepo), notifier, valueobject.DefaultTaxRate)

	seller, buyer := uuid.New(), uuid.New()
	product := activeProduct(seller, "100", "3")
	in := models.CreateOrderInput{
		BuyerID:        buyer,
		DeliveryMethod: models.DeliveryCarrier,
		Lines:          []models.OrderLine{{ProductID: product.ID, Quantity: dec("2")}},
	}

	repo.On("Create", mock.Anything, in, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		prepare := args.Get(2).(repository.OrderPrepareFunc)
		order, err := prepare(map[uuid.UUID]models.Product{product.ID: product})
		require.NoError(t, err)
		order.ID = uuid.New()
		repo.ExpectedCalls[0].ReturnArguments = mock.Arguments{order, nil}
	})

	order, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "200.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "42.00", order.TaxAmount.StringFixed(2))
	assert.Equal(t, []uuid.UUID{seller}, notifier.recipients(ws.EventOrderCreated))
}

func TestOrderService_UpdateDeliveryStatusRules(t *testing.T) {
	seller := uuid.New()
	pickup := &models.Order{ID: uuid.New(), SellerID: seller, BuyerID: uuid.New(),
		DeliveryMethod: models.DeliveryPickup, EscrowStatus: models.EscrowStatusHeld}
	released := &models.Order{ID: uuid.New(), SellerID: seller, BuyerID: uuid.New(),
		DeliveryMethod: models.DeliveryCarrier, EscrowStatus: models.EscrowStatusReleased}

	repo := new(mockOrderRepo)
	repo.On("GetByID", mock.Anything, pickup.ID).Return(pickup, nil)
	repo.On("GetByID", mock.Anything, released.ID).Return(released, nil)
	repo.On("UpdateDeliveryStatus", mock.Anything, pickup.ID, models.DeliveryStatusReadyForPickup).Return(nil)

	svc := NewOrderService(repo, new(mockEscrowRepo), nil, valueobject.DefaultTaxRate)
	ctx := context.Background()

	_, err := svc.UpdateDeliveryStatus(ctx, seller, pickup.ID, models.DeliveryStatusShipped)
	assert.True(t, apperror.IsValidation(err), "shipped недоступен для самовывоза")

	_, err = svc.UpdateDeliveryStatus(ctx, seller, pickup.ID, "lost")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.UpdateDeliveryStatus(ctx, uuid.New(), pickup.ID, models.DeliveryStatusProcessing)
	assert.ErrorIs(t, err, ErrNotOrderSeller)

	_, err = svc.UpdateDeliveryStatus(ctx, seller, released.ID, models.DeliveryStatusShipped)
	assert.ErrorIs(t, err, ErrOrderClosed)

	order, err := svc.UpdateDeliveryStatus(ctx, seller, pickup.ID, models.DeliveryStatusReadyForPickup)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusReadyForPickup, order.DeliveryStatus)
	repo.AssertExpectations(t)
}

func TestOrderService_Confirm(t *testing.T) {
	buyer, seller := uuid.New(), uuid.New()
	order := &models.Order{ID: uuid.New(), BuyerID: buyer, SellerID: seller, EscrowStatus: models.EscrowStatusHeld}
	releasedOrder := *order
	releasedOrder.EscrowStatus = models.EscrowStatusReleased
	releasedOrder.DeliveryStatus = models.DeliveryStatusDelivered

	repo := new(mockOrderRepo)
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	escrow := new(mockEscrowRepo)
	escrow.On("ReleaseOnDelivery", mock.Anything, order.ID).Return(&releasedOrder, nil).Once()

	notifier := &recordingNotifier{}
	svc := NewOrderService(repo, escrow, notifier, valueobject.DefaultTaxRate)

	_, err := svc.Confirm(context.Background(), seller, order.ID)
	assert.ErrorIs(t, err, ErrNotOrderBuyer)

	got, err := svc.Confirm(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, got.EscrowStatus)
	assert.Equal(t, []uuid.UUID{seller}, notifier.recipients(ws.EventOrderConfirmed))
	escrow.AssertExpectations(t)
}

func TestOrderService_GetRequiresParticipant(t *testing.T) {
	order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New()}
	repo := new(mockOrderRepo)
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	svc := NewOrderService(repo, new(mockEscrowRepo), nil, valueobject.DefaultTaxRate)

	_, err := svc.Get(context.Background(), uuid.New(), models.RoleBuyer, order.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Get(context.Background(), uuid.New(), models.RoleAdmin, order.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), order.SellerID, models.RoleSeller, order.ID)
	assert.NoError(t, err)
}
