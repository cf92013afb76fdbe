package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/alertmatch"
	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/metrics"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

// AlertRepository описывает хранилище алертов и их совпадений.
type AlertRepository interface {
	Create(ctx context.Context, a *models.Alert) error
	GetByOwner(ctx context.Context, id, userID uuid.UUID) (*models.Alert, error)
	ListByUser(ctx context.Context, userID uuid.UUID, onlyActive bool) ([]models.Alert, error)
	Update(ctx context.Context, a *models.Alert) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CandidatesForProduct(ctx context.Context, p *models.Product) ([]models.Alert, error)
	RecordMatch(ctx context.Context, alert *models.Alert, productID uuid.UUID) (bool, error)
	ListNotifications(ctx context.Context, alertID uuid.UUID, limit, offset int) ([]models.AlertNotification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

type matchableProducts interface {
	ListMatchCandidates(ctx context.Context, alert *models.Alert) ([]models.Product, error)
}

// AlertInput поля алерта. При обновлении nil означает "не менять".
type AlertInput struct {
	Name         *string
	CategoryID   *uuid.UUID
	Keywords     *string
	MaxPrice     *decimal.Decimal
	Condition    *string
	LocationLat  *float64
	LocationLong *float64
	LocationName *string
	RadiusKm     *int
	Frequency    *string
	IsActive     *bool
	// ClearLocation убирает географическое ограничение.
	ClearLocation bool
	// ClearMaxPrice снимает ограничение по цене, MaxPrice при этом игнорируется.
	ClearMaxPrice bool
}

type AlertService struct {
	alerts   AlertRepository
	products matchableProducts
	notifier Notifier
}

func NewAlertService(alerts AlertRepository, products matchableProducts, notifier Notifier) *AlertService {
	return &AlertService{alerts: alerts, products: products, notifier: notifierOrNop(notifier)}
}

func (s *AlertService) Create(ctx context.Context, userID uuid.UUID, in AlertInput) (*models.Alert, error) {
	if in.Name == nil {
		return nil, apperror.Validation("название алерта обязательно")
	}
	alert := &models.Alert{
		UserID:    userID,
		Frequency: models.AlertFrequencyImmediate,
		IsActive:  true,
	}
	if err := applyAlertInput(alert, in); err != nil {
		return nil, err
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Alert, error) {
	return s.alerts.GetByOwner(ctx, id, userID)
}

func (s *AlertService) List(ctx context.Context, userID uuid.UUID, onlyActive bool) ([]models.Alert, error) {
	return s.alerts.ListByUser(ctx, userID, onlyActive)
}

func (s *AlertService) Update(ctx context.Context, userID, id uuid.UUID, in AlertInput) (*models.Alert, error) {
	alert, err := s.alerts.GetByOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := applyAlertInput(alert, in); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.alerts.Delete(ctx, id, userID)
}

// CheckMatches проверяет активные алерты пользователя по текущим объявлениям и сохраняет совпадения.
func (s *AlertService) CheckMatches(ctx context.Context, userID uuid.UUID) ([]models.AlertMatches, error) {
	alerts, err := s.alerts.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	result := []models.AlertMatches{}
	if len(alerts) == 0 {
		return result, nil
	}

	for i := range alerts {
		alert := &alerts[i]
		products, err := s.products.ListMatchCandidates(ctx, alert)
		if err != nil {
			return nil, err
		}
		matches := models.AlertMatches{AlertID: alert.ID, AlertName: alert.Name, Products: []models.Product{}}
		for j := range products {
			if !alertmatch.Match(alert, &products[j]) {
				continue
			}
			created, err := s.alerts.RecordMatch(ctx, alert, products[j].ID)
			if err != nil {
				return nil, err
			}
			if created {
				metrics.AlertMatched()
			}
			matches.Products = append(matches.Products, products[j])
		}
		if len(matches.Products) > 0 {
			result = append(result, matches)
		}
	}
	return result, nil
}

// MatchProduct проверяет новое или изменённое объявление по алертам покупателей.
// Возвращает число новых совпадений.
func (s *AlertService) MatchProduct(ctx context.Context, product *models.Product) (int, error) {
	if product.Status != models.ProductStatusActive {
		return 0, nil
	}

	candidates, err := s.alerts.CandidatesForProduct(ctx, product)
	if err != nil {
		return 0, err
	}

	log := logger.WithComponent("alert_matching").WithField("product_id", product.ID)
	matched := 0
	for i := range candidates {
		alert := &candidates[i]
		if !alertmatch.Match(alert, product) {
			continue
		}

		created, err := s.alerts.RecordMatch(ctx, alert, product.ID)
		if err != nil {
			log.WithField("alert_id", alert.ID).WithError(err).Error("не удалось сохранить совпадение алерта")
			continue
		}
		if !created {
			continue
		}

		matched++
		metrics.AlertMatched()
		if alert.Frequency == models.AlertFrequencyImmediate {
			notify(s.notifier, alert.UserID, ws.EventAlertMatch, map[string]any{
				"alert_id":   alert.ID,
				"alert_name": alert.Name,
				"product": map[string]any{
					"id":            product.ID,
					"title":         product.Title,
					"price":         product.Price,
					"location_name": product.LocationName,
				},
			})
		}
	}
	return matched, nil
}

// Notifications возвращает историю совпадений алерта владельца.
func (s *AlertService) Notifications(ctx context.Context, userID, alertID uuid.UUID, limit, offset int) ([]models.AlertNotification, error) {
	if _, err := s.alerts.GetByOwner(ctx, alertID, userID); err != nil {
		return nil, err
	}
	return s.alerts.ListNotifications(ctx, alertID, limit, offset)
}

func (s *AlertService) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.alerts.MarkNotificationRead(ctx, notificationID, userID)
}

func applyAlertInput(a *models.Alert, in AlertInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateLength("название алерта", name, 1, validation.MaxAlertNameLength); err != nil {
			return err
		}
		a.Name = name
	}
	if in.CategoryID != nil {
		if *in.CategoryID == uuid.Nil {
			a.CategoryID = nil
		} else {
			a.CategoryID = in.CategoryID
		}
	}
	if in.Keywords != nil {
		keywords := strings.TrimSpace(*in.Keywords)
		if err := validation.ValidateLength("ключевые слова", keywords, 0, validation.MaxKeywordsLength); err != nil {
			return err
		}
		a.Keywords = keywords
	}
	if in.ClearMaxPrice {
		a.MaxPrice = decimal.NullDecimal{}
	} else if in.MaxPrice != nil {
		price, err := valueobject.NormalizeAmount("max_price", *in.MaxPrice)
		if err != nil {
			return err
		}
		a.MaxPrice = decimal.NewNullDecimal(price)
	}
	if in.Condition != nil {
		if *in.Condition == "" {
			a.Condition = nil
		} else {
			if err := validation.ValidateOneOf("condition", *in.Condition, models.ValidConditions); err != nil {
				return err
			}
			cond := *in.Condition
			a.Condition = &cond
		}
	}

	if in.ClearLocation {
		a.LocationLat, a.LocationLong, a.LocationName = nil, nil, nil
	} else if in.LocationLat != nil || in.LocationLong != nil {
		if err := validation.ValidateCoordinates(in.LocationLat, in.LocationLong); err != nil {
			return err
		}
		a.LocationLat = in.LocationLat
		a.LocationLong = in.LocationLong
	}
	if in.LocationName != nil {
		if err := validation.ValidateOptionalText("местоположение", in.LocationName, validation.MaxLocationNameLength); err != nil {
			return err
		}
		a.LocationName = emptyToNil(in.LocationName)
	}

	if in.RadiusKm != nil {
		if err := validation.ValidateRadius(*in.RadiusKm); err != nil {
			return err
		}
		a.RadiusKm = *in.RadiusKm
	}
	if a.RadiusKm == 0 {
		a.RadiusKm = validation.DefaultAlertRadiusKm
	}

	if in.Frequency != nil {
		if err := validation.ValidateOneOf("frequency", *in.Frequency, models.ValidAlertFrequencies); err != nil {
			return err
		}
		a.Frequency = *in.Frequency
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	return nil
}
