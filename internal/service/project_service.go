package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

// ProjectRepository описывает хранилище проектов.
type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status string) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type projectOrders interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Order, error)
}

// ProjectInput поля проекта. При обновлении nil означает "не менять".
type ProjectInput struct {
	Name        *string
	Description *string
	Budget      *decimal.Decimal
	// ClearBudget снимает ограничение бюджета.
	ClearBudget bool
	Status      *string
}

type ProjectService struct {
	repo   ProjectRepository
	orders projectOrders
}

func NewProjectService(repo ProjectRepository, orders projectOrders) *ProjectService {
	return &ProjectService{repo: repo, orders: orders}
}

func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, in ProjectInput) (*models.Project, error) {
	if in.Name == nil {
		in.Name = new(string)
	}
	project := &models.Project{
		OwnerID:    ownerID,
		Status:     models.ProjectStatusActive,
		TotalSpent: decimal.Zero,
	}
	if err := applyProjectInput(project, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	withRemainingBudget(project)
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Project, error) {
	project, err := s.repo.GetByOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	withRemainingBudget(project)
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, ownerID uuid.UUID, status string) ([]models.Project, error) {
	if status != "" {
		if err := validation.ValidateOneOf("status", status, models.ValidProjectStatuses); err != nil {
			return nil, err
		}
	}
	projects, err := s.repo.ListByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		withRemainingBudget(&projects[i])
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, ownerID, id uuid.UUID, in ProjectInput) (*models.Project, error) {
	project, err := s.repo.GetByOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := applyProjectInput(project, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	withRemainingBudget(project)
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, ownerID)
}

// Orders возвращает заказы проекта владельца.
func (s *ProjectService) Orders(ctx context.Context, ownerID, id uuid.UUID) ([]models.Order, error) {
	if _, err := s.repo.GetByOwner(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.orders.ListByProject(ctx, id)
}

func applyProjectInput(p *models.Project, in ProjectInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateLength("название проекта", name, 1, validation.MaxProjectNameLength); err != nil {
			return err
		}
		p.Name = name
	}
	if in.Description != nil {
		if err := validation.ValidateOptionalText("описание", in.Description, validation.MaxDescriptionLength); err != nil {
			return err
		}
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.ClearBudget {
		p.Budget = decimal.NullDecimal{}
	} else if in.Budget != nil {
		budget, err := valueobject.NormalizeAmount("budget", *in.Budget)
		if err != nil {
			return err
		}
		p.Budget = decimal.NewNullDecimal(budget)
	}
	if in.Status != nil {
		if err := validation.ValidateOneOf("status", *in.Status, models.ValidProjectStatuses); err != nil {
			return err
		}
		p.Status = *in.Status
	}
	return nil
}

// withRemainingBudget считает остаток бюджета: budget - total_spent. Без бюджета остаток не определён.
func withRemainingBudget(p *models.Project) {
	if !p.Budget.Valid {
		p.RemainingBudget = decimal.NullDecimal{}
		return
	}
	p.RemainingBudget = decimal.NewNullDecimal(p.Budget.Decimal.Sub(p.TotalSpent))
}
