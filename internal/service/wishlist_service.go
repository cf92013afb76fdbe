package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/models"
)

// WishlistRepository описывает избранное пользователя.
type WishlistRepository interface {
	Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListProducts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Product, error)
}

// ToggleResult итог переключения избранного.
type ToggleResult struct {
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

type WishlistService struct {
	repo WishlistRepository
}

func NewWishlistService(repo WishlistRepository) *WishlistService {
	return &WishlistService{repo: repo}
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Toggle добавляет объявление в избранное или убирает его оттуда.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (*ToggleResult, error) {
	saved, err := s.repo.Toggle(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if saved {
		return &ToggleResult{Saved: true, Message: "объявление добавлено в избранное"}, nil
	}
	return &ToggleResult{Saved: false, Message: "объявление удалено из избранного"}, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, productID)
}
