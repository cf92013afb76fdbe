package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Username string  `json:"username"`
	Phone    *string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Username             *string `json:"username"`
	Phone                *string `json:"phone"`
	BusinessName         *string `json:"business_name"`
	TaxID                *string `json:"tax_id"`
	DefaultPickupAddress *string `json:"default_pickup_address"`
}

type ApplySellerRequest struct {
	BusinessName         string  `json:"business_name" binding:"required"`
	TaxID                *string `json:"tax_id"`
	DefaultPickupAddress *string `json:"default_pickup_address"`
}

// VerifySellerRequest решение администратора; approved обязателен.
type VerifySellerRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

type CategoryRequest struct {
	Name string  `json:"name" binding:"required"`
	Icon *string `json:"icon"`
}

// ProductRequest represents create and update payloads for a listing
type ProductRequest struct {
	CategoryID    *uuid.UUID       `json:"category_id"`
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Condition     *string          `json:"condition"`
	Quantity      *decimal.Decimal `json:"quantity"`
	UnitOfMeasure *string          `json:"unit_of_measure"`
	Price         *decimal.Decimal `json:"price"`
	MarketPrice   *decimal.Decimal `json:"market_price"`
	WeightPerUnit *decimal.Decimal `json:"weight_per_unit"`
	Dimensions    *string          `json:"dimensions"`
	LocationLat   *float64         `json:"location_lat"`
	LocationLong  *float64         `json:"location_long"`
	LocationName  *string          `json:"location_name"`
	Status        *string          `json:"status"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items" binding:"required"`
	ProjectID      *uuid.UUID         `json:"project_id"`
	DeliveryMethod string             `json:"delivery_method" binding:"required"`
}

type UpdateDeliveryStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type SetCartQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type WishlistToggleRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// ProjectRequest represents create and update payloads for a project.
// budget: null снимает ограничение бюджета.
type ProjectRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Budget      *decimal.Decimal `json:"budget"`
	ClearBudget bool             `json:"clear_budget"`
	Status      *string          `json:"status"`
}

// AlertRequest represents create and update payloads for a saved search
type AlertRequest struct {
	Name          *string          `json:"name"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Keywords      *string          `json:"keywords"`
	MaxPrice      *decimal.Decimal `json:"max_price"`
	Condition     *string          `json:"condition"`
	LocationLat   *float64         `json:"location_lat"`
	LocationLong  *float64         `json:"location_long"`
	LocationName  *string          `json:"location_name"`
	RadiusKm      *int             `json:"radius_km"`
	Frequency     *string          `json:"frequency"`
	IsActive      *bool            `json:"is_active"`
	ClearLocation bool             `json:"clear_location"`
	ClearMaxPrice bool             `json:"clear_max_price"`
}

type KitItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
}

// KitRequest represents the full kit payload used for create and replace
type KitRequest struct {
	Title               string           `json:"title" binding:"required"`
	Slug                string           `json:"slug"`
	Description         string           `json:"description"`
	ShortDescription    string           `json:"short_description"`
	KitType             string           `json:"kit_type"`
	Price               decimal.Decimal  `json:"price"`
	MarketPrice         *decimal.Decimal `json:"market_price"`
	QuantityAvailable   int              `json:"quantity_available"`
	MaxQuantityPerOrder int              `json:"max_quantity_per_order"`
	StartDate           time.Time        `json:"start_date" binding:"required"`
	EndDate             time.Time        `json:"end_date" binding:"required"`
	Status              string           `json:"status"`
	Specifications      []string         `json:"specifications"`
	Items               []KitItemRequest `json:"items"`
}

type CreateFlagRequest struct {
	FlagType      string     `json:"flag_type" binding:"required"`
	Reason        string     `json:"reason" binding:"required"`
	Description   string     `json:"description"`
	ProductID     *uuid.UUID `json:"product_id"`
	OrderID       *uuid.UUID `json:"order_id"`
	FlaggedUserID *uuid.UUID `json:"flagged_user_id"`
}

type UpdateFlagStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"admin_notes"`
}

type OpenDisputeRequest struct {
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	Reason      string    `json:"reason" binding:"required"`
	Description string    `json:"description"`
}

type DisputeEvidenceRequest struct {
	Evidence string `json:"evidence" binding:"required"`
}

type ResolveDisputeRequest struct {
	ResolutionType  string           `json:"resolution_type" binding:"required"`
	RefundAmount    *decimal.Decimal `json:"refund_amount"`
	ResolutionNotes string           `json:"resolution_notes"`
}
