package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Alert описывает сохранённый поиск покупателя.
type Alert struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	UserID         uuid.UUID           `db:"user_id" json:"user_id"`
	Name           string              `db:"name" json:"name"`
	CategoryID     *uuid.UUID          `db:"category_id" json:"category_id,omitempty"`
	Keywords       string              `db:"keywords" json:"keywords"`
	MaxPrice       decimal.NullDecimal `db:"max_price" json:"max_price"`
	Condition      *string             `db:"condition" json:"condition,omitempty"`
	LocationLat    *float64            `db:"location_lat" json:"location_lat,omitempty"`
	LocationLong   *float64            `db:"location_long" json:"location_long,omitempty"`
	LocationName   *string             `db:"location_name" json:"location_name,omitempty"`
	RadiusKm       int                 `db:"radius_km" json:"radius_km"`
	Frequency      string              `db:"frequency" json:"frequency"`
	IsActive       bool                `db:"is_active" json:"is_active"`
	LastNotifiedAt *time.Time          `db:"last_notified_at" json:"last_notified_at,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// HasLocation сообщает, задан ли центр области поиска.
func (a *Alert) HasLocation() bool {
	return a.LocationLat != nil && a.LocationLong != nil
}

// AlertNotification фиксирует совпадение алерта с объявлением.
type AlertNotification struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	AlertID      uuid.UUID       `db:"alert_id" json:"alert_id"`
	ProductID    uuid.UUID       `db:"product_id" json:"product_id"`
	ProductTitle string          `db:"product_title" json:"product_title,omitempty"`
	ProductPrice decimal.Decimal `db:"product_price" json:"product_price"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	SentAt       *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	ReadAt       *time.Time      `db:"read_at" json:"read_at,omitempty"`
}

// PendingDigestEntry is an unsent match joined with its alert owner.
type PendingDigestEntry struct {
	NotificationID uuid.UUID       `db:"notification_id"`
	AlertID        uuid.UUID       `db:"alert_id"`
	AlertName      string          `db:"alert_name"`
	UserID         uuid.UUID       `db:"user_id"`
	ProductID      uuid.UUID       `db:"product_id"`
	ProductTitle   string          `db:"product_title"`
	ProductPrice   decimal.Decimal `db:"product_price"`
}

// AlertMatches группирует найденные объявления по алерту.
type AlertMatches struct {
	AlertID   uuid.UUID `json:"alert_id"`
	AlertName string    `json:"alert_name"`
	Products  []Product `json:"products"`
}

// Notification описывает событие, отправленное пользователю.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NotificationFilter параметры выборки ленты уведомлений.
type NotificationFilter struct {
	UnreadOnly bool
	Event      string
	Limit      int
	Offset     int
}
