package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

var ErrNotificationNotFound = apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")

// NotificationRepository хранит ленту событий пользователя.
// payload имеет вид {"event": ..., "data": ...}.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (user_id, payload, is_read) VALUES ($1, $2, $3) RETURNING id, created_at`,
		n.UserID, n.Payload, n.IsRead,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// List отдаёт ленту пользователя, новые сверху.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.Notification, error) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}
	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.UnreadOnly {
		where = append(where, "NOT is_read")
	}
	if f.Event != "" {
		where = append(where, "payload->>'event' = "+next(f.Event))
	}

	query := `SELECT id, user_id, payload, is_read, created_at FROM notifications WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += " LIMIT " + next(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + next(f.Offset)
	}

	items := []models.Notification{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return items, nil
}

// MarkAsRead помечает прочитанным уведомление владельца. Повторная отметка не ошибка.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return r.execOwned(ctx, "mark as read",
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return fmt.Errorf("notification repository: mark all as read %w", err)
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.execOwned(ctx, "delete", `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}

// execOwned выполняет запрос по (id, user_id). Чужое уведомление неотличимо от отсутствующего.
func (r *NotificationRepository) execOwned(ctx context.Context, op, query string, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("notification repository: %s %w", op, err)
	}
	return requireAffected(res, ErrNotificationNotFound)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
