package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, filter models.NotificationFilter) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// notificationPayload формат, в котором события лежат в БД и уходят в WebSocket.
type notificationPayload struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NotificationService лента событий пользователя: заказы, споры, совпадения алертов.
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification сохраняет событие непрочитанным.
func (s *NotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error) {
	if event == "" {
		return nil, fmt.Errorf("notification service: empty event")
	}
	raw, err := json.Marshal(notificationPayload{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal payload %w", err)
	}

	n := &models.Notification{UserID: userID, Payload: raw}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Record сохраняет событие, опубликованное через хаб.
func (s *NotificationService) Record(ctx context.Context, userID uuid.UUID, event string, data any) error {
	_, err := s.CreateNotification(ctx, userID, event, data)
	return err
}

// ListNotifications лента пользователя. Пагинацию уже нормализует HTTP слой.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, filter models.NotificationFilter) ([]models.Notification, error) {
	if err := validation.ValidateLength("event", filter.Event, 0, 64); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID, filter)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
