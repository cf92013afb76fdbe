package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User описывает пользователя маркетплейса: покупателя, продавца или администратора.
type User struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	Email                string          `db:"email" json:"email"`
	Username             string          `db:"username" json:"username"`
	PasswordHash         string          `db:"password_hash" json:"-"`
	Role                 string          `db:"role" json:"role"`
	Phone                *string         `db:"phone" json:"phone,omitempty"`
	IsSeller             bool            `db:"is_seller" json:"is_seller"`
	IsVerified           bool            `db:"is_verified" json:"is_verified"`
	BusinessName         *string         `db:"business_name" json:"business_name,omitempty"`
	TaxID                *string         `db:"tax_id" json:"tax_id,omitempty"`
	VerificationStatus   *string         `db:"verification_status" json:"verification_status,omitempty"`
	DefaultPickupAddress *string         `db:"default_pickup_address" json:"default_pickup_address,omitempty"`
	Rating               decimal.Decimal `db:"rating" json:"rating"`
	TotalSales           int             `db:"total_sales" json:"total_sales"`
	IsActive             bool            `db:"is_active" json:"is_active"`
	LastLoginAt          *time.Time      `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicSeller is the subset of a user shown on listings and seller pages.
type PublicSeller struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	BusinessName *string         `db:"business_name" json:"business_name,omitempty"`
	IsVerified   bool            `db:"is_verified" json:"is_verified"`
	Rating       decimal.Decimal `db:"rating" json:"rating"`
	TotalSales   int             `db:"total_sales" json:"total_sales"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
