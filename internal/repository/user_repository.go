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

var (
	// ErrUserNotFound возвращается, когда запись пользователя не найдена.
	ErrUserNotFound = apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
	// ErrUserExists возвращается при повторной регистрации email или username.
	ErrUserExists = apperror.New(apperror.ErrCodeConflict, "пользователь с таким email или именем уже существует")
)

const userColumns = `id, email, username, password_hash, role, phone, is_seller, is_verified,
	business_name, tax_id, verification_status, default_pickup_address, rating, total_sales,
	is_active, last_login_at, created_at, updated_at`

// UserRepository отвечает за работу с таблицами users и user_sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, phone, is_seller, is_verified, business_name, verification_status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING id, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.Phone,
		user.IsSeller, user.IsVerified, user.BusinessName, user.VerificationStatus,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByUsername возвращает пользователя по имени.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get %w", err)
	}
	return &user, nil
}

// UpdateProfile сохраняет изменяемые пользователем поля.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, phone = $3, business_name = $4, tax_id = $5,
			default_pickup_address = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Username, user.Phone, user.BusinessName, user.TaxID, user.DefaultPickupAddress,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if common.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("user repository: update profile %w", err)
	}
	return nil
}

// ApplySeller переводит покупателя в продавцы со статусом проверки pending.
// Возвращает false, если пользователь уже продавец.
func (r *UserRepository) ApplySeller(ctx context.Context, userID uuid.UUID, businessName string, taxID, pickupAddress *string) (bool, error) {
	var applied bool
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var isSeller bool
		if err := tx.GetContext(ctx, &isSeller, `SELECT is_seller FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		if isSeller {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET is_seller = TRUE, role = CASE WHEN role = 'admin' THEN role ELSE 'seller' END,
				business_name = $2, tax_id = $3, default_pickup_address = COALESCE($4, default_pickup_address),
				verification_status = 'pending', is_verified = FALSE, updated_at = NOW()
			WHERE id = $1
		`, userID, businessName, taxID, pickupAddress); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, err
		}
		return false, fmt.Errorf("user repository: apply seller %w", err)
	}
	return applied, nil
}

// SetVerification фиксирует решение администратора по заявке продавца.
func (r *UserRepository) SetVerification(ctx context.Context, userID uuid.UUID, approved bool) (*models.User, error) {
	status := models.VerificationRejected
	if approved {
		status = models.VerificationApproved
	}

	var user models.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users
		SET verification_status = $2, is_verified = $3, updated_at = NOW()
		WHERE id = $1 AND is_seller = TRUE
		RETURNING `+userColumns, userID, status, approved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: set verification %w", err)
	}
	return &user, nil
}

// ListPendingSellers возвращает заявки продавцов, ожидающие проверки.
func (r *UserRepository) ListPendingSellers(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+` FROM users
		WHERE is_seller = TRUE AND verification_status = 'pending'
		ORDER BY updated_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user repository: list pending sellers %w", err)
	}
	return users, nil
}

// GetPublicSeller возвращает публичную карточку пользователя.
func (r *UserRepository) GetPublicSeller(ctx context.Context, id uuid.UUID) (*models.PublicSeller, error) {
	var seller models.PublicSeller
	err := r.db.GetContext(ctx, &seller, `
		SELECT id, username, business_name, is_verified, rating, total_sales, created_at
		FROM users WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get public seller %w", err)
	}
	return &seller, nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// DeleteSession удаляет сессию по refresh токену. Возвращает false, если сессии не было.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return false, fmt.Errorf("user repository: delete session %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("user repository: delete session %w", err)
	}
	return n > 0, nil
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}
