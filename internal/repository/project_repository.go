package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

// ErrProjectNotFound возвращается, если проект не найден или принадлежит другому пользователю.
var ErrProjectNotFound = apperror.New(apperror.ErrCodeNotFound, "проект не найден")

// projectSelect выбирает проекты вместе с агрегатами по заказам.
const projectSelect = `
	SELECT pr.id, pr.owner_id, pr.name, pr.description, pr.budget, pr.status, pr.created_at, pr.updated_at,
		COALESCE(SUM(o.total_amount), 0) AS total_spent,
		COUNT(o.id) AS orders_count
	FROM projects pr
	LEFT JOIN orders o ON o.project_id = pr.id
`

// ProjectRepository работает с проектами покупателей.
type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO projects (owner_id, name, description, budget, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.OwnerID, p.Name, p.Description, p.Budget, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("project repository: create %w", err)
	}
	return nil
}

// GetByOwner возвращает проект владельца с агрегатами.
func (r *ProjectRepository) GetByOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.db.GetContext(ctx, &p, projectSelect+`
		WHERE pr.id = $1 AND pr.owner_id = $2
		GROUP BY pr.id
	`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project repository: get %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, status string) ([]models.Project, error) {
	query := projectSelect + ` WHERE pr.owner_id = $1`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND pr.status = $2`
		args = append(args, status)
	}
	query += ` GROUP BY pr.id ORDER BY pr.created_at DESC`

	projects := []models.Project{}
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("project repository: list %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE projects SET name = $3, description = $4, budget = $5, status = $6, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING updated_at
	`, p.ID, p.OwnerID, p.Name, p.Description, p.Budget, p.Status).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("project repository: update %w", err)
	}
	return nil
}

// Delete удаляет проект. Заказы остаются, ссылка на проект обнуляется.
func (r *ProjectRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("project repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProjectNotFound
	}
	return nil
}
