package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/cache"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

// CategoryRepository описывает хранилище категорий.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// CategoryInput данные для создания и изменения категории.
type CategoryInput struct {
	Name string
	Icon *string
}

// CategoryService отдаёт справочник категорий через кэш.
type CategoryService struct {
	repo  CategoryRepository
	cache *cache.Cache
	ttl   time.Duration
}

func NewCategoryService(repo CategoryRepository, c *cache.Cache, ttl time.Duration) *CategoryService {
	return &CategoryService{repo: repo, cache: c, ttl: ttl}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return cache.GetOrLoad(ctx, s.cache, categoriesCacheKey(), s.ttl, func(ctx context.Context) ([]models.Category, error) {
		categories, err := s.repo.ListCategories(ctx)
		if categories == nil && err == nil {
			categories = []models.Category{}
		}
		return categories, err
	})
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return cache.GetOrLoad(ctx, s.cache, categoryCacheKey(id), s.ttl, func(ctx context.Context) (*models.Category, error) {
		return s.repo.GetCategoryByID(ctx, id)
	})
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category, err := buildCategory(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(ctx, categoriesCachePrefix)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	category, err := buildCategory(in)
	if err != nil {
		return nil, err
	}
	category.ID = id
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(ctx, categoriesCachePrefix)
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(ctx, categoriesCachePrefix)
	return nil
}

func buildCategory(in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateLength("название категории", name, 1, validation.MaxCategoryNameLength); err != nil {
		return nil, err
	}
	return &models.Category{Name: name, Icon: emptyToNil(in.Icon)}, nil
}

const categoriesCachePrefix = "categories:"

func categoriesCacheKey() string { return categoriesCachePrefix + "all" }

func categoryCacheKey(id uuid.UUID) string { return categoriesCachePrefix + id.String() }
