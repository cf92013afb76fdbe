package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

// FlagRepository описывает хранилище жалоб.
type FlagRepository interface {
	Create(ctx context.Context, f *models.Flag) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Flag, error)
	List(ctx context.Context, reporterID *uuid.UUID, status string, limit, offset int) ([]models.Flag, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string, adminID uuid.UUID) (*models.Flag, error)
}

// CreateFlagInput данные жалобы. Должен быть указан идентификатор, соответствующий типу.
type CreateFlagInput struct {
	FlagType      string
	Reason        string
	Description   string
	ProductID     *uuid.UUID
	OrderID       *uuid.UUID
	FlaggedUserID *uuid.UUID
}

type FlagService struct {
	repo FlagRepository
}

func NewFlagService(repo FlagRepository) *FlagService {
	return &FlagService{repo: repo}
}

func (s *FlagService) Create(ctx context.Context, reporterID uuid.UUID, in CreateFlagInput) (*models.Flag, error) {
	if err := validation.ValidateOneOf("reason", in.Reason, models.ValidFlagReasons); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if err := validation.ValidateLength("описание", description, 0, validation.MaxDescriptionLength); err != nil {
		return nil, err
	}

	flag := &models.Flag{
		FlagType:    in.FlagType,
		Reason:      in.Reason,
		Description: description,
		FlaggedBy:   reporterID,
	}

	// заполняется только ссылка, соответствующая типу жалобы
	var target *uuid.UUID
	switch in.FlagType {
	case models.FlagTypeProduct:
		target = in.ProductID
		flag.ProductID = in.ProductID
	case models.FlagTypeOrder:
		target = in.OrderID
		flag.OrderID = in.OrderID
	case models.FlagTypeUser:
		target = in.FlaggedUserID
		flag.FlaggedUserID = in.FlaggedUserID
	default:
		return nil, apperror.Validation("недопустимый тип жалобы: %q", in.FlagType)
	}
	if target == nil || *target == uuid.Nil {
		return nil, apperror.Validation("для жалобы типа %s нужно указать объект", in.FlagType)
	}
	if in.FlagType == models.FlagTypeUser && *target == reporterID {
		return nil, apperror.Validation("нельзя пожаловаться на себя")
	}

	if err := s.repo.Create(ctx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// List возвращает жалобы: администратору все, остальным только свои.
func (s *FlagService) List(ctx context.Context, userID uuid.UUID, role, status string, limit, offset int) ([]models.Flag, error) {
	if status != "" {
		if err := validation.ValidateOneOf("status", status, models.ValidFlagStatuses); err != nil {
			return nil, err
		}
	}
	var reporter *uuid.UUID
	if role != models.RoleAdmin {
		reporter = &userID
	}
	return s.repo.List(ctx, reporter, status, limit, offset)
}

func (s *FlagService) Pending(ctx context.Context, limit, offset int) ([]models.Flag, error) {
	return s.repo.List(ctx, nil, models.FlagStatusPending, limit, offset)
}

func (s *FlagService) Get(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*models.Flag, error) {
	flag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if flag.FlaggedBy != userID && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return flag, nil
}

func (s *FlagService) UpdateStatus(ctx context.Context, adminID, id uuid.UUID, status, notes string) (*models.Flag, error) {
	if err := validation.ValidateOneOf("status", status, models.ValidFlagStatuses); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if err := validation.ValidateLength("комментарий", notes, 0, validation.MaxAdminNotesLength); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, status, notes, adminID)
}
