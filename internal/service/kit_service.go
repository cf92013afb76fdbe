package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

// KitRepository описывает хранилище наборов.
type KitRepository interface {
	List(ctx context.Context, f repository.KitFilter) ([]models.Kit, error)
	GetBySlug(ctx context.Context, slug string) (*models.Kit, error)
	Create(ctx context.Context, k *models.Kit) error
	Update(ctx context.Context, slug string, k *models.Kit) error
	Delete(ctx context.Context, slug string) error
	IncrementViews(ctx context.Context, slug string) (int, error)
}

// KitItemInput позиция состава набора.
type KitItemInput struct {
	Name        string
	Description string
	Quantity    string
}

// KitInput полные данные набора для создания и замены.
type KitInput struct {
	Title               string
	Slug                string
	Description         string
	ShortDescription    string
	KitType             string
	Price               decimal.Decimal
	MarketPrice         *decimal.Decimal
	QuantityAvailable   int
	MaxQuantityPerOrder int
	StartDate           time.Time
	EndDate             time.Time
	Status              string
	Specifications      []string
	Items               []KitItemInput
}

// KitView набор с расчётными полями.
type KitView struct {
	models.Kit
	SavingsPercentage int64 `json:"savings_percentage"`
	DaysRemaining     int   `json:"days_remaining"`
}

type KitService struct {
	repo KitRepository
	now  func() time.Time
}

func NewKitService(repo KitRepository) *KitService {
	return &KitService{repo: repo, now: time.Now}
}

func (s *KitService) List(ctx context.Context, kitType, status string) ([]KitView, error) {
	if status != "" {
		if err := validation.ValidateOneOf("status", status, models.ValidKitStatuses); err != nil {
			return nil, err
		}
	}
	kits, err := s.repo.List(ctx, repository.KitFilter{KitType: kitType, Status: status})
	if err != nil {
		return nil, err
	}
	return s.views(kits), nil
}

// Active возвращает наборы, доступные к покупке прямо сейчас.
func (s *KitService) Active(ctx context.Context) ([]KitView, error) {
	now := s.now()
	kits, err := s.repo.List(ctx, repository.KitFilter{ActiveAt: &now})
	if err != nil {
		return nil, err
	}
	return s.views(kits), nil
}

func (s *KitService) Upcoming(ctx context.Context) ([]KitView, error) {
	now := s.now()
	kits, err := s.repo.List(ctx, repository.KitFilter{UpcomingAt: &now})
	if err != nil {
		return nil, err
	}
	return s.views(kits), nil
}

func (s *KitService) Get(ctx context.Context, slug string) (*KitView, error) {
	kit, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	view := s.view(*kit)
	return &view, nil
}

func (s *KitService) IncrementViews(ctx context.Context, slug string) (int, error) {
	return s.repo.IncrementViews(ctx, slug)
}

func (s *KitService) Create(ctx context.Context, in KitInput) (*KitView, error) {
	kit, err := buildKit(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, kit); err != nil {
		return nil, err
	}
	view := s.view(*kit)
	return &view, nil
}

func (s *KitService) Update(ctx context.Context, slug string, in KitInput) (*KitView, error) {
	if in.Slug == "" {
		in.Slug = slug
	}
	kit, err := buildKit(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, slug, kit); err != nil {
		return nil, err
	}
	view := s.view(*kit)
	return &view, nil
}

func (s *KitService) Delete(ctx context.Context, slug string) error {
	return s.repo.Delete(ctx, slug)
}

func (s *KitService) views(kits []models.Kit) []KitView {
	out := make([]KitView, 0, len(kits))
	for _, k := range kits {
		out = append(out, s.view(k))
	}
	return out
}

func (s *KitService) view(k models.Kit) KitView {
	if k.Items == nil {
		k.Items = []models.KitItem{}
	}
	return KitView{
		Kit:               k,
		SavingsPercentage: valueobject.SavingsPercentage(k.Price, k.MarketPrice),
		DaysRemaining:     k.DaysRemaining(s.now()),
	}
}

func buildKit(in KitInput) (*models.Kit, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateProductTitle(title); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = slugify(title)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, err
	}

	if !in.EndDate.After(in.StartDate) {
		return nil, apperror.Validation("дата окончания должна быть позже даты начала")
	}
	price, err := valueobject.NormalizeAmount("price", in.Price)
	if err != nil {
		return nil, err
	}
	if in.MaxQuantityPerOrder < 1 {
		return nil, apperror.Validation("max_quantity_per_order должен быть не меньше 1")
	}
	if in.QuantityAvailable < 0 {
		return nil, apperror.Validation("quantity_available не может быть отрицательным")
	}

	status := in.Status
	if status == "" {
		status = models.KitStatusUpcoming
	}
	if err := validation.ValidateOneOf("status", status, models.ValidKitStatuses); err != nil {
		return nil, err
	}

	kit := &models.Kit{
		Title:               title,
		Slug:                slug,
		Description:         strings.TrimSpace(in.Description),
		ShortDescription:    strings.TrimSpace(in.ShortDescription),
		KitType:             strings.TrimSpace(in.KitType),
		Price:               price,
		QuantityAvailable:   in.QuantityAvailable,
		MaxQuantityPerOrder: in.MaxQuantityPerOrder,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Status:              status,
		Specifications:      pq.StringArray{},
		Items:               make([]models.KitItem, 0, len(in.Items)),
	}
	if in.MarketPrice != nil {
		market, err := valueobject.NormalizeAmount("market_price", *in.MarketPrice)
		if err != nil {
			return nil, err
		}
		kit.MarketPrice = decimal.NewNullDecimal(market)
	}
	for _, spec := range in.Specifications {
		if spec = strings.TrimSpace(spec); spec != "" {
			kit.Specifications = append(kit.Specifications, spec)
		}
	}
	for i, item := range in.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, apperror.Validation("позиция набора %d: название обязательно", i+1)
		}
		kit.Items = append(kit.Items, models.KitItem{
			Name:        name,
			Description: strings.TrimSpace(item.Description),
			Quantity:    strings.TrimSpace(item.Quantity),
			SortOrder:   i,
		})
	}
	return kit, nil
}

// slugify строит slug из латинских букв и цифр заголовка.
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
