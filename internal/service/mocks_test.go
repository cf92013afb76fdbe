package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
)

type sentEvent struct {
	UserID uuid.UUID
	Event  string
	Data   any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Publish(userID uuid.UUID, event string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{UserID: userID, Event: event, Data: data})
	return nil
}

func (n *recordingNotifier) sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

func (n *recordingNotifier) recipients(event string) []uuid.UUID {
	var out []uuid.UUID
	for _, e := range n.sent() {
		if e.Event == event {
			out = append(out, e.UserID)
		}
	}
	return out
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, in models.CreateOrderInput, prepare repository.OrderPrepareFunc) (*models.Order, error) {
	args := m.Called(ctx, in, prepare)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByParticipant(ctx context.Context, userID uuid.UUID, asSeller bool, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, asSeller, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type mockEscrowRepo struct {
	mock.Mock
}

func (m *mockEscrowRepo) ReleaseOnDelivery(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListAll(ctx context.Context, onlyOpen bool, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, onlyOpen, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) SetEvidence(ctx context.Context, id uuid.UUID, fromBuyer bool, evidence string) (*models.Dispute, error) {
	args := m.Called(ctx, id, fromBuyer, evidence)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Transition(ctx context.Context, id uuid.UUID, to valueobject.DisputeStatus) (*models.Dispute, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Resolve(ctx context.Context, res models.DisputeResolution) (*repository.ResolveResult, error) {
	args := m.Called(ctx, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ResolveResult), args.Error(1)
}

type mockAlertRepo struct {
	mock.Mock
}

func (m *mockAlertRepo) Create(ctx context.Context, a *models.Alert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAlertRepo) GetByOwner(ctx context.Context, id, userID uuid.UUID) (*models.Alert, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *mockAlertRepo) ListByUser(ctx context.Context, userID uuid.UUID, onlyActive bool) ([]models.Alert, error) {
	args := m.Called(ctx, userID, onlyActive)
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *mockAlertRepo) Update(ctx context.Context, a *models.Alert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAlertRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockAlertRepo) CandidatesForProduct(ctx context.Context, p *models.Product) ([]models.Alert, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *mockAlertRepo) RecordMatch(ctx context.Context, alert *models.Alert, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, alert.ID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAlertRepo) ListNotifications(ctx context.Context, alertID uuid.UUID, limit, offset int) ([]models.AlertNotification, error) {
	args := m.Called(ctx, alertID, limit, offset)
	return args.Get(0).([]models.AlertNotification), args.Error(1)
}

func (m *mockAlertRepo) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockAlertRepo) PendingDigest(ctx context.Context, frequency string) ([]models.PendingDigestEntry, error) {
	args := m.Called(ctx, frequency)
	return args.Get(0).([]models.PendingDigestEntry), args.Error(1)
}

func (m *mockAlertRepo) MarkDigestSent(ctx context.Context, notificationIDs, alertIDs []uuid.UUID) error {
	args := m.Called(ctx, notificationIDs, alertIDs)
	return args.Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil && p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// копия, чтобы сервис не менял фикстуру теста
	p := *args.Get(0).(*models.Product)
	return &p, args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockProductRepo) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *mockProductRepo) ListMatchCandidates(ctx context.Context, alert *models.Alert) ([]models.Product, error) {
	args := m.Called(ctx, alert.ID)
	return args.Get(0).([]models.Product), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) ApplySeller(ctx context.Context, userID uuid.UUID, businessName string, taxID, pickupAddress *string) (bool, error) {
	args := m.Called(ctx, userID, businessName, taxID, pickupAddress)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) SetVerification(ctx context.Context, userID uuid.UUID, approved bool) (*models.User, error) {
	args := m.Called(ctx, userID, approved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) ListPendingSellers(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockUserRepo) GetPublicSeller(ctx context.Context, id uuid.UUID) (*models.PublicSeller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicSeller), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}
