package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Kit описывает ограниченное по времени спецпредложение.
type Kit struct {
	ID                  uuid.UUID           `db:"id" json:"id"`
	Title               string              `db:"title" json:"title"`
	Slug                string              `db:"slug" json:"slug"`
	Description         string              `db:"description" json:"description"`
	ShortDescription    string              `db:"short_description" json:"short_description"`
	KitType             string              `db:"kit_type" json:"kit_type"`
	Price               decimal.Decimal     `db:"price" json:"price"`
	MarketPrice         decimal.NullDecimal `db:"market_price" json:"market_price"`
	QuantityAvailable   int                 `db:"quantity_available" json:"quantity_available"`
	QuantitySold        int                 `db:"quantity_sold" json:"quantity_sold"`
	MaxQuantityPerOrder int                 `db:"max_quantity_per_order" json:"max_quantity_per_order"`
	StartDate           time.Time           `db:"start_date" json:"start_date"`
	EndDate             time.Time           `db:"end_date" json:"end_date"`
	Status              string              `db:"status" json:"status"`
	Specifications      pq.StringArray      `db:"specifications" json:"specifications"`
	Views               int                 `db:"views" json:"views"`
	OrdersCount         int                 `db:"orders_count" json:"orders_count"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
	Items               []KitItem           `json:"items"`
}

// KitItem is one component of a kit.
type KitItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	KitID       uuid.UUID `db:"kit_id" json:"kit_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Quantity    string    `db:"quantity" json:"quantity"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
}

// DaysRemaining возвращает число полных дней до окончания предложения.
func (k *Kit) DaysRemaining(now time.Time) int {
	if now.After(k.EndDate) {
		return 0
	}
	return int(k.EndDate.Sub(now).Hours() / 24)
}

// IsLive сообщает, доступен ли набор к покупке в данный момент.
func (k *Kit) IsLive(now time.Time) bool {
	return k.Status == KitStatusActive &&
		!now.Before(k.StartDate) &&
		!now.After(k.EndDate) &&
		k.QuantityAvailable > 0
}
