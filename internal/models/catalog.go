package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category представляет категорию строительных материалов.
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Icon      *string   `db:"icon" json:"icon,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product описывает объявление о продаже остатков материалов.
type Product struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	SellerID      uuid.UUID           `db:"seller_id" json:"seller_id"`
	CategoryID    *uuid.UUID          `db:"category_id" json:"category_id,omitempty"`
	Title         string              `db:"title" json:"title"`
	Description   string              `db:"description" json:"description"`
	Condition     string              `db:"condition" json:"condition"`
	Quantity      decimal.Decimal     `db:"quantity" json:"quantity"`
	UnitOfMeasure string              `db:"unit_of_measure" json:"unit_of_measure"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	MarketPrice   decimal.NullDecimal `db:"market_price" json:"market_price"`
	WeightPerUnit decimal.NullDecimal `db:"weight_per_unit" json:"weight_per_unit"`
	Dimensions    *string             `db:"dimensions" json:"dimensions,omitempty"`
	LocationLat   *float64            `db:"location_lat" json:"location_lat,omitempty"`
	LocationLong  *float64            `db:"location_long" json:"location_long,omitempty"`
	LocationName  *string             `db:"location_name" json:"location_name,omitempty"`
	Status        string              `db:"status" json:"status"`
	Views         int                 `db:"views" json:"views"`
	Saves         int                 `db:"saves" json:"saves"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// HasLocation сообщает, заданы ли обе координаты.
func (p *Product) HasLocation() bool {
	return p.LocationLat != nil && p.LocationLong != nil
}

// ProductImage описывает фотографию объявления.
type ProductImage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	FilePath  string    `db:"file_path" json:"file_path"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductFilter задаёт параметры выборки объявлений.
type ProductFilter struct {
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Condition  string
	Status     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Query      string
	Ordering   string
	Limit      int
	Offset     int
}
