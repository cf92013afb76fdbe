package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order описывает покупку у одного продавца.
type Order struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	BuyerID        uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	SellerID       uuid.UUID       `db:"seller_id" json:"seller_id"`
	ProjectID      *uuid.UUID      `db:"project_id" json:"project_id,omitempty"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	DeliveryMethod string          `db:"delivery_method" json:"delivery_method"`
	DeliveryStatus string          `db:"delivery_status" json:"delivery_status"`
	EscrowStatus   string          `db:"escrow_status" json:"escrow_status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	Items          []OrderItem     `json:"items,omitempty"`
}

// IsParticipant сообщает, является ли пользователь покупателем или продавцом заказа.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// OrderItem хранит позицию заказа с ценой на момент покупки.
type OrderItem struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	OrderID         uuid.UUID       `db:"order_id" json:"order_id"`
	ProductID       uuid.UUID       `db:"product_id" json:"product_id"`
	ProductTitle    string          `db:"product_title" json:"product_title,omitempty"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase" json:"price_at_purchase"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// OrderLine is a requested (product, quantity) pair before prices are captured.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// CreateOrderInput содержит данные для оформления заказа.
type CreateOrderInput struct {
	BuyerID        uuid.UUID
	ProjectID      *uuid.UUID
	DeliveryMethod string
	Lines          []OrderLine
}

// Cart is the buyer's cart with product details resolved.
type Cart struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// CartItem is one cart line joined with its product.
type CartItem struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	CartID        uuid.UUID       `db:"cart_id" json:"-"`
	ProductID     uuid.UUID       `db:"product_id" json:"product_id"`
	ProductTitle  string          `db:"product_title" json:"product_title"`
	ProductStatus string          `db:"product_status" json:"product_status"`
	SellerID      uuid.UUID       `db:"seller_id" json:"seller_id"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	Subtotal      decimal.Decimal `db:"-" json:"subtotal"`
	AddedAt       time.Time       `db:"added_at" json:"added_at"`
}

// WishlistItem связывает пользователя и сохранённое объявление.
type WishlistItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Project группирует заказы покупателя под одним бюджетом.
type Project struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	OwnerID         uuid.UUID           `db:"owner_id" json:"owner_id"`
	Name            string              `db:"name" json:"name"`
	Description     string              `db:"description" json:"description"`
	Budget          decimal.NullDecimal `db:"budget" json:"budget"`
	Status          string              `db:"status" json:"status"`
	TotalSpent      decimal.Decimal     `db:"total_spent" json:"total_spent"`
	OrdersCount     int                 `db:"orders_count" json:"orders_count"`
	RemainingBudget decimal.NullDecimal `db:"-" json:"remaining_budget"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}
