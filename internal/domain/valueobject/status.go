package valueobject

import "github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"

type DisputeStatus string

const (
	DisputeStatusOpen          DisputeStatus = "open"
	DisputeStatusUnderReview   DisputeStatus = "under_review"
	DisputeStatusBuyerFavored  DisputeStatus = "buyer_favored"
	DisputeStatusSellerFavored DisputeStatus = "seller_favored"
	DisputeStatusPartialRefund DisputeStatus = "partial_refund"
	DisputeStatusClosed        DisputeStatus = "closed"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen: {
		DisputeStatusUnderReview,
		DisputeStatusBuyerFavored,
		DisputeStatusSellerFavored,
		DisputeStatusPartialRefund,
	},
	DisputeStatusUnderReview: {
		DisputeStatusBuyerFavored,
		DisputeStatusSellerFavored,
		DisputeStatusPartialRefund,
	},
	DisputeStatusBuyerFavored:  {DisputeStatusClosed},
	DisputeStatusSellerFavored: {DisputeStatusClosed},
	DisputeStatusPartialRefund: {DisputeStatusClosed},
	DisputeStatusClosed:        {},
}

// IsResolution true для статусов с решением администратора.
func (s DisputeStatus) IsResolution() bool {
	switch s {
	case DisputeStatusBuyerFavored, DisputeStatusSellerFavored, DisputeStatusPartialRefund:
		return true
	}
	return false
}

// IsOpen true пока спор не решён.
func (s DisputeStatus) IsOpen() bool {
	return s == DisputeStatusOpen || s == DisputeStatusUnderReview
}

func (s DisputeStatus) CanTransitionTo(newStatus DisputeStatus) bool {
	allowed, ok := disputeTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// EscrowOutcome возвращает статус escrow заказа после решения спора.
// Частичный возврат оставляет средства в статусе disputed до ручной обработки.
func (s DisputeStatus) EscrowOutcome() (EscrowStatus, bool) {
	switch s {
	case DisputeStatusBuyerFavored:
		return EscrowStatusRefunded, true
	case DisputeStatusSellerFavored:
		return EscrowStatusReleased, true
	case DisputeStatusPartialRefund:
		return EscrowStatusDisputed, true
	}
	return "", false
}

// NewResolutionType принимает только итоговые решения по спору.
func NewResolutionType(resolution string) (DisputeStatus, error) {
	s := DisputeStatus(resolution)
	if !s.IsResolution() {
		return "", apperror.New(apperror.ErrCodeValidation,
			"тип решения должен быть buyer_favored, seller_favored или partial_refund")
	}
	return s, nil
}

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

// IsFinal true когда средства уже переданы одной из сторон.
func (s EscrowStatus) IsFinal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "pending"
	DeliveryStatusProcessing     DeliveryStatus = "processing"
	DeliveryStatusShipped        DeliveryStatus = "shipped"
	DeliveryStatusDelivered      DeliveryStatus = "delivered"
	DeliveryStatusReadyForPickup DeliveryStatus = "ready_for_pickup"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusProcessing, DeliveryStatusShipped,
		DeliveryStatusDelivered, DeliveryStatusReadyForPickup:
		return true
	}
	return false
}

func NewDeliveryStatus(status string) (DeliveryStatus, error) {
	s := DeliveryStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус доставки")
	}
	return s, nil
}
