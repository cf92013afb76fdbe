package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

var (
	ErrAlertNotFound             = apperror.New(apperror.ErrCodeNotFound, "алерт не найден")
	ErrAlertNotificationNotFound = apperror.New(apperror.ErrCodeNotFound, "уведомление по алерту не найдено")
)

const alertColumns = `id, user_id, name, category_id, keywords, max_price, condition, location_lat, location_long,
	location_name, radius_km, frequency, is_active, last_notified_at, created_at, updated_at`

// AlertRepository работает с сохранёнными поисками и их совпадениями.
type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, a *models.Alert) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO alerts (user_id, name, category_id, keywords, max_price, condition, location_lat, location_long,
			location_name, radius_km, frequency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, a.UserID, a.Name, a.CategoryID, a.Keywords, a.MaxPrice, a.Condition, a.LocationLat, a.LocationLong,
		a.LocationName, a.RadiusKm, a.Frequency, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if common.IsForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("alert repository: create %w", err)
	}
	return nil
}

func (r *AlertRepository) GetByOwner(ctx context.Context, id, userID uuid.UUID) (*models.Alert, error) {
	var a models.Alert
	err := r.db.GetContext(ctx, &a, `SELECT `+alertColumns+` FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("alert repository: get %w", err)
	}
	return &a, nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID, onlyActive bool) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1`
	if onlyActive {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	alerts := []models.Alert{}
	if err := r.db.SelectContext(ctx, &alerts, query, userID); err != nil {
		return nil, fmt.Errorf("alert repository: list by user %w", err)
	}
	return alerts, nil
}

func (r *AlertRepository) Update(ctx context.Context, a *models.Alert) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE alerts
		SET name = $3, category_id = $4, keywords = $5, max_price = $6, condition = $7, location_lat = $8,
			location_long = $9, location_name = $10, radius_km = $11, frequency = $12, is_active = $13, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, a.ID, a.UserID, a.Name, a.CategoryID, a.Keywords, a.MaxPrice, a.Condition, a.LocationLat,
		a.LocationLong, a.LocationName, a.RadiusKm, a.Frequency, a.IsActive,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAlertNotFound
	}
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("alert repository: update %w", err)
	}
	return nil
}

func (r *AlertRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("alert repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CandidatesForProduct отбирает активные алерты, которые могут совпасть с объявлением.
// Ключевые слова и расстояние проверяются позже в alertmatch.
func (r *AlertRepository) CandidatesForProduct(ctx context.Context, p *models.Product) ([]models.Alert, error) {
	alerts := []models.Alert{}
	err := r.db.SelectContext(ctx, &alerts, `
		SELECT `+alertColumns+` FROM alerts
		WHERE is_active
			AND user_id <> $1
			AND (category_id IS NULL OR category_id = $2)
			AND (max_price IS NULL OR max_price >= $3)
			AND (condition IS NULL OR condition = '' OR condition = $4)
	`, p.SellerID, p.CategoryID, p.Price, p.Condition)
	if err != nil {
		return nil, fmt.Errorf("alert repository: candidates %w", err)
	}
	return alerts, nil
}

// RecordMatch сохраняет совпадение алерта с объявлением, если его ещё нет.
// Для алертов с частотой immediate совпадение сразу помечается отправленным
// и обновляется last_notified_at, чтобы дайджест не повторял его. Возвращает true, если запись создана.
func (r *AlertRepository) RecordMatch(ctx context.Context, alert *models.Alert, productID uuid.UUID) (bool, error) {
	immediate := alert.Frequency == models.AlertFrequencyImmediate
	var created bool
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO alert_notifications (alert_id, product_id, sent_at)
			VALUES ($1, $2, CASE WHEN $3 THEN NOW() END)
			ON CONFLICT (alert_id, product_id) DO NOTHING
		`, alert.ID, productID, immediate)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0

		if created && immediate {
			if _, err := tx.ExecContext(ctx,
				`UPDATE alerts SET last_notified_at = NOW() WHERE id = $1`, alert.ID,
			); err != nil {
				return fmt.Errorf("touch alert: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("alert repository: record match %w", err)
	}
	return created, nil
}

// ListNotifications возвращает историю совпадений алерта.
func (r *AlertRepository) ListNotifications(ctx context.Context, alertID uuid.UUID, limit, offset int) ([]models.AlertNotification, error) {
	items := []models.AlertNotification{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT n.id, n.alert_id, n.product_id, p.title AS product_title, p.price AS product_price,
			n.created_at, n.sent_at, n.read_at
		FROM alert_notifications n
		JOIN products p ON p.id = n.product_id
		WHERE n.alert_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2 OFFSET $3
	`, alertID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("alert repository: list notifications %w", err)
	}
	return items, nil
}

// MarkNotificationRead отмечает совпадение прочитанным, если алерт принадлежит пользователю.
func (r *AlertRepository) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alert_notifications n SET read_at = COALESCE(n.read_at, NOW())
		FROM alerts a
		WHERE n.id = $1 AND a.id = n.alert_id AND a.user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("alert repository: mark notification read %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlertNotificationNotFound
	}
	return nil
}

// PendingDigest возвращает неотправленные совпадения активных алертов с указанной частотой.
func (r *AlertRepository) PendingDigest(ctx context.Context, frequency string) ([]models.PendingDigestEntry, error) {
	entries := []models.PendingDigestEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT n.id AS notification_id, a.id AS alert_id, a.name AS alert_name, a.user_id,
			p.id AS product_id, p.title AS product_title, p.price AS product_price
		FROM alert_notifications n
		JOIN alerts a ON a.id = n.alert_id
		JOIN products p ON p.id = n.product_id
		WHERE n.sent_at IS NULL AND a.is_active AND a.frequency = $1
		ORDER BY a.user_id, n.created_at
	`, frequency)
	if err != nil {
		return nil, fmt.Errorf("alert repository: pending digest %w", err)
	}
	return entries, nil
}

// MarkDigestSent отмечает совпадения отправленными и обновляет last_notified_at алертов.
func (r *AlertRepository) MarkDigestSent(ctx context.Context, notificationIDs, alertIDs []uuid.UUID) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE alert_notifications SET sent_at = NOW() WHERE id = ANY($1)`, pq.Array(notificationIDs),
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE alerts SET last_notified_at = NOW() WHERE id = ANY($1)`, pq.Array(alertIDs))
		return err
	})
	if err != nil {
		return fmt.Errorf("alert repository: mark digest sent %w", err)
	}
	return nil
}
