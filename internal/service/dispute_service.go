package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/metrics"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

var ErrNotParticipant = apperror.New(apperror.ErrCodeForbidden, "пользователь не участвует в сделке")

// DisputeRepository описывает хранилище споров.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListAll(ctx context.Context, onlyOpen bool, limit, offset int) ([]models.Dispute, error)
	SetEvidence(ctx context.Context, id uuid.UUID, fromBuyer bool, evidence string) (*models.Dispute, error)
	Transition(ctx context.Context, id uuid.UUID, to valueobject.DisputeStatus) (*models.Dispute, error)
	Resolve(ctx context.Context, res models.DisputeResolution) (*repository.ResolveResult, error)
}

type orderGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// OpenDisputeInput данные для открытия спора.
type OpenDisputeInput struct {
	OrderID     uuid.UUID
	Reason      string
	Description string
}

// ResolveDisputeInput решение администратора.
type ResolveDisputeInput struct {
	ResolutionType  string
	RefundAmount    *decimal.Decimal
	ResolutionNotes string
}

type DisputeService struct {
	disputes DisputeRepository
	orders   orderGetter
	notifier Notifier
}

func NewDisputeService(disputes DisputeRepository, orders orderGetter, notifier Notifier) *DisputeService {
	return &DisputeService{disputes: disputes, orders: orders, notifier: notifierOrNop(notifier)}
}

// Open открывает спор по заказу. Средства по заказу замораживаются.
func (s *DisputeService) Open(ctx context.Context, userID uuid.UUID, in OpenDisputeInput) (*models.Dispute, error) {
	if err := validation.ValidateOneOf("reason", in.Reason, models.ValidDisputeReasons); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if err := validation.ValidateLength("описание", description, 0, validation.MaxDescriptionLength); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	dispute := &models.Dispute{
		OrderID:     order.ID,
		RaisedBy:    userID,
		Reason:      in.Reason,
		Description: description,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, err
	}

	logger.WithComponent("disputes").WithFields(map[string]interface{}{
		"dispute_id": dispute.ID,
		"order_id":   order.ID,
		"user_id":    userID,
	}).Info("открыт спор")

	counterparty := order.SellerID
	if userID == order.SellerID {
		counterparty = order.BuyerID
	}
	notify(s.notifier, counterparty, ws.EventDisputeOpened, map[string]any{
		"dispute_id": dispute.ID,
		"order_id":   order.ID,
		"reason":     dispute.Reason,
	})
	return dispute, nil
}

// List возвращает споры: администратору все, остальным только свои.
func (s *DisputeService) List(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.Dispute, error) {
	if role == models.RoleAdmin {
		return s.disputes.ListAll(ctx, false, limit, offset)
	}
	return s.disputes.ListByUser(ctx, userID, limit, offset)
}

func (s *DisputeService) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	return s.disputes.ListAll(ctx, true, limit, offset)
}

func (s *DisputeService) Get(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*models.Dispute, error) {
	dispute, order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && !order.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return dispute, nil
}

// AddEvidence сохраняет доказательства покупателя или продавца.
func (s *DisputeService) AddEvidence(ctx context.Context, userID, id uuid.UUID, evidence string) (*models.Dispute, error) {
	evidence = strings.TrimSpace(evidence)
	if err := validation.ValidateLength("доказательства", evidence, 1, validation.MaxEvidenceLength); err != nil {
		return nil, err
	}

	_, order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var fromBuyer bool
	var counterparty uuid.UUID
	switch userID {
	case order.BuyerID:
		fromBuyer, counterparty = true, order.SellerID
	case order.SellerID:
		counterparty = order.BuyerID
	default:
		return nil, ErrNotParticipant
	}

	dispute, err := s.disputes.SetEvidence(ctx, id, fromBuyer, evidence)
	if err != nil {
		return nil, err
	}
	notify(s.notifier, counterparty, ws.EventDisputeUpdated, map[string]any{
		"dispute_id": dispute.ID,
		"status":     dispute.Status,
	})
	return dispute, nil
}

// Review берёт спор на рассмотрение.
func (s *DisputeService) Review(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.transition(ctx, id, valueobject.DisputeStatusUnderReview)
}

// Close закрывает решённый спор.
func (s *DisputeService) Close(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.transition(ctx, id, valueobject.DisputeStatusClosed)
}

// Resolve выносит решение по спору. Статус спора и escrow заказа меняются в одной транзакции.
func (s *DisputeService) Resolve(ctx context.Context, adminID, id uuid.UUID, in ResolveDisputeInput) (*models.Dispute, error) {
	notes := strings.TrimSpace(in.ResolutionNotes)
	if err := validation.ValidateLength("комментарий", notes, 0, validation.MaxAdminNotesLength); err != nil {
		return nil, err
	}

	res := models.DisputeResolution{
		DisputeID:       id,
		ResolutionType:  in.ResolutionType,
		ResolutionNotes: notes,
		ResolvedBy:      adminID,
	}
	if in.RefundAmount != nil {
		amount, err := valueobject.NormalizeAmount("refund_amount", *in.RefundAmount)
		if err != nil {
			return nil, err
		}
		res.RefundAmount = decimal.NewNullDecimal(amount)
	}

	result, err := s.disputes.Resolve(ctx, res)
	if err != nil {
		return nil, err
	}
	if !result.Applied {
		return result.Dispute, nil
	}

	metrics.DisputeResolved(in.ResolutionType)
	logger.WithComponent("disputes").WithFields(map[string]interface{}{
		"dispute_id":    result.Dispute.ID,
		"order_id":      result.Order.ID,
		"resolution":    in.ResolutionType,
		"escrow_status": result.Order.EscrowStatus,
	}).Info("спор решён")

	payload := map[string]any{
		"dispute_id":      result.Dispute.ID,
		"order_id":        result.Order.ID,
		"resolution_type": in.ResolutionType,
		"refund_amount":   result.Dispute.RefundAmount,
		"escrow_status":   result.Order.EscrowStatus,
	}
	notify(s.notifier, result.Order.BuyerID, ws.EventDisputeResolved, payload)
	notify(s.notifier, result.Order.SellerID, ws.EventDisputeResolved, payload)
	return result.Dispute, nil
}

func (s *DisputeService) transition(ctx context.Context, id uuid.UUID, to valueobject.DisputeStatus) (*models.Dispute, error) {
	dispute, err := s.disputes.Transition(ctx, id, to)
	if err != nil {
		return nil, err
	}
	if order, err := s.orders.GetByID(ctx, dispute.OrderID); err == nil {
		payload := map[string]any{"dispute_id": dispute.ID, "status": dispute.Status}
		notify(s.notifier, order.BuyerID, ws.EventDisputeUpdated, payload)
		notify(s.notifier, order.SellerID, ws.EventDisputeUpdated, payload)
	}
	return dispute, nil
}

func (s *DisputeService) load(ctx context.Context, id uuid.UUID) (*models.Dispute, *models.Order, error) {
	dispute, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orders.GetByID(ctx, dispute.OrderID)
	if err != nil {
		return nil, nil, err
	}
	return dispute, order, nil
}
