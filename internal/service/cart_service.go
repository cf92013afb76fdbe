package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

// CartRepository описывает хранилище корзин. Изменения выполняются под блокировкой строки корзины.
type CartRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, delta decimal.Decimal) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty decimal.Decimal) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type CartService struct {
	repo CartRepository
}

func NewCartService(repo CartRepository) *CartService {
	return &CartService{repo: repo}
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.repo.Get(ctx, userID)
}

// AddItem добавляет товар в корзину или увеличивает его количество.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) (*models.Cart, error) {
	if productID == uuid.Nil {
		return nil, apperror.Validation("не указан product_id")
	}
	qty, err := normalizeCartQuantity(quantity)
	if err != nil {
		return nil, err
	}
	if !qty.IsPositive() {
		return nil, apperror.Validation("количество должно быть положительным")
	}

	if err := s.repo.AddItem(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// SetQuantity задаёт количество товара. Количество 0 и меньше удаляет позицию.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) (*models.Cart, error) {
	if !quantity.IsPositive() {
		if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
			return nil, err
		}
		return s.repo.Get(ctx, userID)
	}

	qty, err := normalizeCartQuantity(quantity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.RemoveItem(ctx, userID, productID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

func normalizeCartQuantity(quantity decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	qty, err := valueobject.NormalizeAmount("quantity", quantity)
	if err != nil {
		return decimal.Zero, err
	}
	if qty.GreaterThan(decimal.NewFromInt(validation.MaxCartQuantityPerItem)) {
		return decimal.Zero, apperror.Validation("количество не может превышать %d", validation.MaxCartQuantityPerItem)
	}
	return qty, nil
}
