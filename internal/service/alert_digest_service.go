package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/metrics"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

const digestTimeout = 5 * time.Minute

// DigestRepository выбирает и отмечает совпадения для рассылок.
type DigestRepository interface {
	PendingDigest(ctx context.Context, frequency string) ([]models.PendingDigestEntry, error)
	MarkDigestSent(ctx context.Context, notificationIDs, alertIDs []uuid.UUID) error
}

// DigestItem объявление в рассылке.
type DigestItem struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	ProductPrice decimal.Decimal `json:"product_price"`
}

// DigestAlert совпадения одного алерта в рассылке.
type DigestAlert struct {
	AlertID   uuid.UUID    `json:"alert_id"`
	AlertName string       `json:"alert_name"`
	Products  []DigestItem `json:"products"`
}

type userDigest struct {
	alerts          []*DigestAlert
	byAlert         map[uuid.UUID]*DigestAlert
	notificationIDs []uuid.UUID
	alertIDs        []uuid.UUID
}

// AlertDigestService рассылает накопленные совпадения алертов daily и weekly по расписанию.
type AlertDigestService struct {
	repo     DigestRepository
	notifier Notifier
	cron     *cron.Cron
}

func NewAlertDigestService(repo DigestRepository, notifier Notifier) *AlertDigestService {
	cronLogger := cron.PrintfLogger(logger.WithComponent("cron"))
	return &AlertDigestService{
		repo:     repo,
		notifier: notifierOrNop(notifier),
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// Start регистрирует задачи рассылки и запускает планировщик.
func (s *AlertDigestService) Start(dailySpec, weeklySpec string) error {
	jobs := map[string]string{
		models.AlertFrequencyDaily:  dailySpec,
		models.AlertFrequencyWeekly: weeklySpec,
	}
	for frequency, spec := range jobs {
		frequency := frequency
		if _, err := s.cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
			defer cancel()
			if _, err := s.RunDigest(ctx, frequency); err != nil {
				logger.WithComponent("alert_digest").WithField("frequency", frequency).
					WithError(err).Error("рассылка не выполнена")
			}
		}); err != nil {
			return fmt.Errorf("alert digest: расписание %s %q: %w", frequency, spec, err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *AlertDigestService) Stop() {
	<-s.cron.Stop().Done()
}

// RunDigest отправляет каждому пользователю одно событие со всеми неотправленными совпадениями.
// Возвращает число пользователей, получивших рассылку.
func (s *AlertDigestService) RunDigest(ctx context.Context, frequency string) (sent int, err error) {
	started := time.Now()
	defer func() {
		metrics.RecordDigestRun(frequency, time.Since(started), err == nil)
	}()

	entries, err := s.repo.PendingDigest(ctx, frequency)
	if err != nil {
		return 0, err
	}

	digests, order := groupDigest(entries)
	for _, userID := range order {
		d := digests[userID]
		if err := s.repo.MarkDigestSent(ctx, d.notificationIDs, d.alertIDs); err != nil {
			return sent, err
		}
		notify(s.notifier, userID, ws.EventAlertDigest, map[string]any{
			"frequency": frequency,
			"alerts":    d.alerts,
		})
		sent++
	}

	logger.WithComponent("alert_digest").WithFields(map[string]interface{}{
		"frequency": frequency,
		"users":     sent,
		"matches":   len(entries),
	}).Info("рассылка по алертам завершена")
	return sent, nil
}

func groupDigest(entries []models.PendingDigestEntry) (map[uuid.UUID]*userDigest, []uuid.UUID) {
	digests := make(map[uuid.UUID]*userDigest)
	var order []uuid.UUID

	for _, e := range entries {
		d, ok := digests[e.UserID]
		if !ok {
			d = &userDigest{byAlert: make(map[uuid.UUID]*DigestAlert)}
			digests[e.UserID] = d
			order = append(order, e.UserID)
		}
		a, ok := d.byAlert[e.AlertID]
		if !ok {
			a = &DigestAlert{AlertID: e.AlertID, AlertName: e.AlertName}
			d.byAlert[e.AlertID] = a
			d.alerts = append(d.alerts, a)
			d.alertIDs = append(d.alertIDs, e.AlertID)
		}
		a.Products = append(a.Products, DigestItem{
			ProductID:    e.ProductID,
			ProductTitle: e.ProductTitle,
			ProductPrice: e.ProductPrice,
		})
		d.notificationIDs = append(d.notificationIDs, e.NotificationID)
	}
	return digests, order
}
