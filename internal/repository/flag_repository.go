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
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

var ErrFlagNotFound = apperror.New(apperror.ErrCodeNotFound, "жалоба не найдена")

const flagColumns = `id, flag_type, reason, description, status, flagged_by, product_id, order_id, flagged_user_id,
	admin_notes, resolved_by, resolved_at, created_at, updated_at`

type FlagRepository struct {
	db *sqlx.DB
}

func NewFlagRepository(db *sqlx.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

func (r *FlagRepository) Create(ctx context.Context, f *models.Flag) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO flags (flag_type, reason, description, flagged_by, product_id, order_id, flagged_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, admin_notes, created_at, updated_at
	`, f.FlagType, f.Reason, f.Description, f.FlaggedBy, f.ProductID, f.OrderID, f.FlaggedUserID).
		Scan(&f.ID, &f.Status, &f.AdminNotes, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return apperror.New(apperror.ErrCodeNotFound, "объект жалобы не найден")
		}
		return fmt.Errorf("flag repository: create %w", err)
	}
	return nil
}

func (r *FlagRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Flag, error) {
	var f models.Flag
	err := r.db.GetContext(ctx, &f, `SELECT `+flagColumns+` FROM flags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("flag repository: get by id %w", err)
	}
	return &f, nil
}

// List возвращает жалобы. reporterID ограничивает выборку жалобами пользователя, status фильтрует по статусу.
func (r *FlagRepository) List(ctx context.Context, reporterID *uuid.UUID, status string, limit, offset int) ([]models.Flag, error) {
	query := `SELECT ` + flagColumns + ` FROM flags WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if reporterID != nil {
		query += fmt.Sprintf(` AND flagged_by = $%d`, argNum)
		args = append(args, *reporterID)
		argNum++
	}
	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argNum)
		args = append(args, status)
		argNum++
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, limit, offset)

	flags := []models.Flag{}
	if err := r.db.SelectContext(ctx, &flags, query, args...); err != nil {
		return nil, fmt.Errorf("flag repository: list %w", err)
	}
	return flags, nil
}

// UpdateStatus меняет статус жалобы. Для resolved и dismissed фиксируется, кто и когда её закрыл.
func (r *FlagRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string, adminID uuid.UUID) (*models.Flag, error) {
	var f models.Flag
	err := r.db.GetContext(ctx, &f, `
		UPDATE flags
		SET status = $2, admin_notes = $3,
			resolved_by = CASE WHEN $2 IN ('resolved', 'dismissed') THEN $4::uuid ELSE NULL END,
			resolved_at = CASE WHEN $2 IN ('resolved', 'dismissed') THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+flagColumns, id, status, notes, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("flag repository: update status %w", err)
	}
	return &f, nil
}
