package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Dispute struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	OrderID         uuid.UUID           `db:"order_id" json:"order_id"`
	RaisedBy        uuid.UUID           `db:"raised_by" json:"raised_by"`
	Reason          string              `db:"reason" json:"reason"`
	Description     string              `db:"description" json:"description"`
	BuyerEvidence   string              `db:"buyer_evidence" json:"buyer_evidence"`
	SellerEvidence  string              `db:"seller_evidence" json:"seller_evidence"`
	Status          string              `db:"status" json:"status"`
	ResolutionType  *string             `db:"resolution_type" json:"resolution_type,omitempty"`
	RefundAmount    decimal.NullDecimal `db:"refund_amount" json:"refund_amount"`
	ResolutionNotes string              `db:"resolution_notes" json:"resolution_notes"`
	ResolvedBy      *uuid.UUID          `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time          `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}

type DisputeResolution struct {
	DisputeID       uuid.UUID
	ResolutionType  string
	RefundAmount    decimal.NullDecimal
	ResolutionNotes string
	ResolvedBy      uuid.UUID
}

type Flag struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FlagType      string     `db:"flag_type" json:"flag_type"`
	Reason        string     `db:"reason" json:"reason"`
	Description   string     `db:"description" json:"description"`
	Status        string     `db:"status" json:"status"`
	FlaggedBy     uuid.UUID  `db:"flagged_by" json:"flagged_by"`
	ProductID     *uuid.UUID `db:"product_id" json:"product_id,omitempty"`
	OrderID       *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	FlaggedUserID *uuid.UUID `db:"flagged_user_id" json:"flagged_user_id,omitempty"`
	AdminNotes    string     `db:"admin_notes" json:"admin_notes"`
	ResolvedBy    *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
