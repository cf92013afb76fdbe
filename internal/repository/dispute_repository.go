package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

var (
	ErrDisputeNotFound          = apperror.New(apperror.ErrCodeNotFound, "спор не найден")
	ErrDisputeExists            = apperror.New(apperror.ErrCodeConflict, "по этому заказу уже открыт спор")
	ErrDisputeResolved          = apperror.New(apperror.ErrCodeConflict, "спор уже решён")
	ErrInvalidDisputeTransition = apperror.New(apperror.ErrCodeConflict, "недопустимая смена статуса спора")
)

const disputeColumns = `id, order_id, raised_by, reason, description, buyer_evidence, seller_evidence, status,
	resolution_type, refund_amount, resolution_notes, resolved_by, resolved_at, created_at, updated_at`

// ResolveResult итог решения спора.
type ResolveResult struct {
	Dispute *models.Dispute
	Order   *models.Order
	// Applied false, если спор уже был решён тем же способом.
	Applied bool
}

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор и переводит escrow заказа в disputed в одной транзакции.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		order, err := lockOrder(ctx, tx, d.OrderID)
		if err != nil {
			return err
		}
		if valueobject.EscrowStatus(order.EscrowStatus) != valueobject.EscrowStatusHeld {
			return ErrEscrowNotHeld
		}

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO disputes (order_id, raised_by, reason, description, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, buyer_evidence, seller_evidence, resolution_notes, created_at, updated_at
		`, d.OrderID, d.RaisedBy, d.Reason, d.Description, models.DisputeStatusOpen,
		).Scan(&d.ID, &d.BuyerEvidence, &d.SellerEvidence, &d.ResolutionNotes, &d.CreatedAt, &d.UpdatedAt); err != nil {
			if common.IsUniqueViolation(err) {
				return ErrDisputeExists
			}
			return fmt.Errorf("insert dispute: %w", err)
		}
		d.Status = models.DisputeStatusOpen

		return setEscrowStatus(ctx, tx, d.OrderID, valueobject.EscrowStatusDisputed)
	})
	if err != nil {
		return wrapTxError("dispute repository: create", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

// ListByUser возвращает споры по заказам, где пользователь покупатель или продавец.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	disputes := []models.Dispute{}
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.id, d.order_id, d.raised_by, d.reason, d.description, d.buyer_evidence, d.seller_evidence, d.status,
			d.resolution_type, d.refund_amount, d.resolution_notes, d.resolved_by, d.resolved_at, d.created_at, d.updated_at
		FROM disputes d
		JOIN orders o ON o.id = d.order_id
		WHERE o.buyer_id = $1 OR o.seller_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// ListAll возвращает все споры. Если onlyOpen, то только нерешённые.
func (r *DisputeRepository) ListAll(ctx context.Context, onlyOpen bool, limit, offset int) ([]models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes`
	if onlyOpen {
		query += ` WHERE status IN ('open', 'under_review')`
	}
	query += ` ORDER BY created_at ASC LIMIT $1 OFFSET $2`

	disputes := []models.Dispute{}
	if err := r.db.SelectContext(ctx, &disputes, query, limit, offset); err != nil {
		return nil, fmt.Errorf("dispute repository: list all %w", err)
	}
	return disputes, nil
}

// SetEvidence сохраняет доказательства стороны спора, пока спор не решён.
func (r *DisputeRepository) SetEvidence(ctx context.Context, id uuid.UUID, fromBuyer bool, evidence string) (*models.Dispute, error) {
	column := "seller_evidence"
	if fromBuyer {
		column = "buyer_evidence"
	}

	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		UPDATE disputes SET `+column+` = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('open', 'under_review')
		RETURNING `+disputeColumns, id, evidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeResolved
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: set evidence %w", err)
	}
	return &d, nil
}

// Transition переводит спор в статус без решения (under_review, closed).
func (r *DisputeRepository) Transition(ctx context.Context, id uuid.UUID, to valueobject.DisputeStatus) (*models.Dispute, error) {
	var d *models.Dispute
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		d, err = lockDispute(ctx, tx, id)
		if err != nil {
			return err
		}
		if !valueobject.DisputeStatus(d.Status).CanTransitionTo(to) {
			return ErrInvalidDisputeTransition
		}
		return tx.GetContext(ctx, d, `
			UPDATE disputes SET status = $2, updated_at = NOW() WHERE id = $1
			RETURNING `+disputeColumns, id, string(to))
	})
	if err != nil {
		return nil, wrapTxError("dispute repository: transition", err)
	}
	return d, nil
}

// Resolve фиксирует решение по спору и меняет escrow заказа в одной транзакции.
// Повторное решение тем же способом возвращает спор без изменений.
func (r *DisputeRepository) Resolve(ctx context.Context, res models.DisputeResolution) (*ResolveResult, error) {
	target, err := valueobject.NewResolutionType(res.ResolutionType)
	if err != nil {
		return nil, err
	}

	result := &ResolveResult{}
	err = common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		d, err := lockDispute(ctx, tx, res.DisputeID)
		if err != nil {
			return err
		}
		order, err := lockOrder(ctx, tx, d.OrderID)
		if err != nil {
			return err
		}
		result.Dispute = d
		result.Order = order

		current := valueobject.DisputeStatus(d.Status)
		if current == target {
			return nil
		}
		if !current.CanTransitionTo(target) {
			return ErrInvalidDisputeTransition
		}

		if target == valueobject.DisputeStatusPartialRefund {
			if !res.RefundAmount.Valid || !res.RefundAmount.Decimal.IsPositive() ||
				res.RefundAmount.Decimal.GreaterThan(order.TotalAmount) {
				return apperror.Validation("сумма частичного возврата должна быть больше 0 и не больше суммы заказа %s", order.TotalAmount.StringFixed(2))
			}
		} else {
			res.RefundAmount.Valid = false
		}

		if err := tx.GetContext(ctx, d, `
			UPDATE disputes
			SET status = $2, resolution_type = $2, refund_amount = $3, resolution_notes = $4,
				resolved_by = $5, resolved_at = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING `+disputeColumns,
			d.ID, string(target), res.RefundAmount, res.ResolutionNotes, res.ResolvedBy,
		); err != nil {
			return fmt.Errorf("update dispute: %w", err)
		}

		escrow, _ := target.EscrowOutcome()
		if err := setEscrowStatus(ctx, tx, order.ID, escrow); err != nil {
			return err
		}
		order.EscrowStatus = string(escrow)
		result.Applied = true
		return nil
	})
	if err != nil {
		return nil, wrapTxError("dispute repository: resolve", err)
	}
	return result, nil
}

func lockDispute(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	if err := tx.GetContext(ctx, &d, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("lock dispute: %w", err)
	}
	return &d, nil
}
