package service

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/logger"
)

// Notifier доставляет события пользователю (websocket + сохранение в уведомления).
type Notifier interface {
	Publish(userID uuid.UUID, event string, data any) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(uuid.UUID, string, any) error { return nil }

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// notify отправляет событие и только логирует ошибку доставки.
func notify(n Notifier, userID uuid.UUID, event string, data any) {
	if err := n.Publish(userID, event, data); err != nil {
		logger.WithComponent("notify").WithFields(map[string]interface{}{
			"user_id": userID,
			"event":   event,
			"error":   err.Error(),
		}).Warn("не удалось отправить событие пользователю")
	}
}
