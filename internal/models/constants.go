package models

// Роли пользователей
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Статусы верификации продавца
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Состояние материала
const (
	ConditionNew             = "new"
	ConditionOpenedUnused    = "opened_unused"
	ConditionCutUndamaged    = "cut_undamaged"
	ConditionSlightlyDamaged = "slightly_damaged"
)

// Единицы измерения
const (
	UnitKg          = "kg"
	UnitTon         = "ton"
	UnitSqm         = "sqm"
	UnitCount       = "count"
	UnitLinearMeter = "linear_meter"
)

// Статусы объявлений
const (
	ProductStatusActive   = "active"
	ProductStatusSold     = "sold"
	ProductStatusInactive = "inactive"
)

// Способы и статусы доставки
const (
	DeliveryCarrier = "carrier"
	DeliveryPickup  = "pickup"

	DeliveryStatusPending        = "pending"
	DeliveryStatusProcessing     = "processing"
	DeliveryStatusShipped        = "shipped"
	DeliveryStatusDelivered      = "delivered"
	DeliveryStatusReadyForPickup = "ready_for_pickup"
)

// Статусы escrow
const (
	EscrowStatusHeld     = "held"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
	EscrowStatusDisputed = "disputed"
)

// Статусы проектов
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Частота уведомлений по алертам
const (
	AlertFrequencyImmediate = "immediate"
	AlertFrequencyDaily     = "daily"
	AlertFrequencyWeekly    = "weekly"
)

// Статусы наборов
const (
	KitStatusUpcoming = "upcoming"
	KitStatusActive   = "active"
	KitStatusSoldOut  = "sold_out"
	KitStatusExpired  = "expired"
)

// Жалобы
const (
	FlagTypeProduct = "product"
	FlagTypeOrder   = "order"
	FlagTypeUser    = "user"

	FlagStatusPending   = "pending"
	FlagStatusReviewing = "reviewing"
	FlagStatusResolved  = "resolved"
	FlagStatusDismissed = "dismissed"
)

// Споры
const (
	DisputeStatusOpen          = "open"
	DisputeStatusUnderReview   = "under_review"
	DisputeStatusBuyerFavored  = "buyer_favored"
	DisputeStatusSellerFavored = "seller_favored"
	DisputeStatusPartialRefund = "partial_refund"
	DisputeStatusClosed        = "closed"
)

// ValidConditions список допустимых состояний материала
var ValidConditions = map[string]struct{}{
	ConditionNew:             {},
	ConditionOpenedUnused:    {},
	ConditionCutUndamaged:    {},
	ConditionSlightlyDamaged: {},
}

// ValidUnits список допустимых единиц измерения
var ValidUnits = map[string]struct{}{
	UnitKg:          {},
	UnitTon:         {},
	UnitSqm:         {},
	UnitCount:       {},
	UnitLinearMeter: {},
}

// ValidProductStatuses список допустимых статусов объявления
var ValidProductStatuses = map[string]struct{}{
	ProductStatusActive:   {},
	ProductStatusSold:     {},
	ProductStatusInactive: {},
}

var ValidDeliveryStatuses = map[string]struct{}{
	DeliveryStatusPending:        {},
	DeliveryStatusProcessing:     {},
	DeliveryStatusShipped:        {},
	DeliveryStatusDelivered:      {},
	DeliveryStatusReadyForPickup: {},
}

var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusActive:    {},
	ProjectStatusCompleted: {},
	ProjectStatusArchived:  {},
}

var ValidAlertFrequencies = map[string]struct{}{
	AlertFrequencyImmediate: {},
	AlertFrequencyDaily:     {},
	AlertFrequencyWeekly:    {},
}

var ValidKitStatuses = map[string]struct{}{
	KitStatusUpcoming: {},
	KitStatusActive:   {},
	KitStatusSoldOut:  {},
	KitStatusExpired:  {},
}

var ValidFlagReasons = map[string]struct{}{
	"fraud":         {},
	"misleading":    {},
	"inappropriate": {},
	"prohibited":    {},
	"spam":          {},
	"other":         {},
}

var ValidFlagStatuses = map[string]struct{}{
	FlagStatusPending:   {},
	FlagStatusReviewing: {},
	FlagStatusResolved:  {},
	FlagStatusDismissed: {},
}

var ValidDisputeReasons = map[string]struct{}{
	"not_as_described": {},
	"not_received":     {},
	"damaged":          {},
	"wrong_quantity":   {},
	"other":            {},
}
