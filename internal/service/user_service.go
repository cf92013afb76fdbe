package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/cache"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

var (
	ErrAlreadySeller = apperror.New(apperror.ErrCodeConflict, "пользователь уже является продавцом")
	ErrNotApplied    = apperror.New(apperror.ErrCodeConflict, "пользователь не подавал заявку продавца")
)

const publicSellerCacheTTL = time.Minute

func publicSellerCacheKey(id uuid.UUID) string { return "seller:" + id.String() }

// UserRepository описывает операции с профилями пользователей.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	ApplySeller(ctx context.Context, userID uuid.UUID, businessName string, taxID, pickupAddress *string) (bool, error)
	SetVerification(ctx context.Context, userID uuid.UUID, approved bool) (*models.User, error)
	ListPendingSellers(ctx context.Context, limit, offset int) ([]models.User, error)
	GetPublicSeller(ctx context.Context, id uuid.UUID) (*models.PublicSeller, error)
}

// UpdateProfileInput содержит изменяемые поля профиля. nil означает "не менять".
type UpdateProfileInput struct {
	Username             *string
	Phone                *string
	BusinessName         *string
	TaxID                *string
	DefaultPickupAddress *string
}

// ApplySellerInput данные заявки на статус продавца.
type ApplySellerInput struct {
	BusinessName         string
	TaxID                *string
	DefaultPickupAddress *string
}

type UserService struct {
	repo     UserRepository
	cache    *cache.Cache
	notifier Notifier
}

func NewUserService(repo UserRepository, c *cache.Cache, notifier Notifier) *UserService {
	return &UserService{repo: repo, cache: c, notifier: notifierOrNop(notifier)}
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile применяет частичное обновление профиля.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if in.Phone != nil {
		if err := validation.ValidatePhone(in.Phone); err != nil {
			return nil, err
		}
		user.Phone = emptyToNil(in.Phone)
	}
	if in.BusinessName != nil {
		if err := validation.ValidateOptionalText("название компании", in.BusinessName, validation.MaxBusinessNameLength); err != nil {
			return nil, err
		}
		user.BusinessName = emptyToNil(in.BusinessName)
	}
	if in.TaxID != nil {
		user.TaxID = emptyToNil(in.TaxID)
	}
	if in.DefaultPickupAddress != nil {
		if err := validation.ValidateOptionalText("адрес самовывоза", in.DefaultPickupAddress, validation.MaxLocationNameLength); err != nil {
			return nil, err
		}
		user.DefaultPickupAddress = emptyToNil(in.DefaultPickupAddress)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, publicSellerCacheKey(userID))
	return user, nil
}

// ApplySeller подаёт заявку на статус продавца. Заявка уходит на проверку администратору.
func (s *UserService) ApplySeller(ctx context.Context, userID uuid.UUID, in ApplySellerInput) (*models.User, error) {
	businessName := strings.TrimSpace(in.BusinessName)
	if err := validation.ValidateNonEmpty("название компании", businessName); err != nil {
		return nil, err
	}
	if err := validation.ValidateLength("название компании", businessName, 1, validation.MaxBusinessNameLength); err != nil {
		return nil, err
	}

	applied, err := s.repo.ApplySeller(ctx, userID, businessName, emptyToNil(in.TaxID), emptyToNil(in.DefaultPickupAddress))
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrAlreadySeller
	}

	s.cache.Invalidate(ctx, publicSellerCacheKey(userID))
	return s.repo.GetByID(ctx, userID)
}

// VerifySeller фиксирует решение администратора по заявке продавца.
func (s *UserService) VerifySeller(ctx context.Context, userID uuid.UUID, approved bool) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsSeller {
		return nil, ErrNotApplied
	}

	user, err = s.repo.SetVerification(ctx, userID, approved)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, publicSellerCacheKey(userID))
	notify(s.notifier, userID, ws.EventSellerVerified, map[string]any{
		"approved":            approved,
		"verification_status": user.VerificationStatus,
	})
	return user, nil
}

func (s *UserService) ListPendingSellers(ctx context.Context, limit, offset int) ([]models.User, error) {
	users, err := s.repo.ListPendingSellers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// PublicProfile возвращает публичную карточку продавца.
func (s *UserService) PublicProfile(ctx context.Context, id uuid.UUID) (*models.PublicSeller, error) {
	return cache.GetOrLoad(ctx, s.cache, publicSellerCacheKey(id), publicSellerCacheTTL, func(ctx context.Context) (*models.PublicSeller, error) {
		return s.repo.GetPublicSeller(ctx, id)
	})
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
