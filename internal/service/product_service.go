package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cocreate-backend/internal/goroutine"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/storage"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

var (
	ErrNotSeller       = apperror.New(apperror.ErrCodeForbidden, "размещать объявления могут только продавцы")
	ErrNotProductOwner = apperror.New(apperror.ErrCodeForbidden, "объявление принадлежит другому продавцу")
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
	matchTimeout        = 30 * time.Second
)

// ProductRepository описывает хранилище объявлений.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	IncrementViews(ctx context.Context, id uuid.UUID) (int, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
}

// ProductImageRepository хранит записи о фотографиях объявлений.
type ProductImageRepository interface {
	Create(ctx context.Context, img *models.ProductImage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProductImage, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStorage сохраняет файлы фотографий.
type ImageStorage interface {
	SaveImage(ctx context.Context, productID uuid.UUID, r io.Reader) (*storage.StoredFile, error)
	Delete(ctx context.Context, relativePath string) error
}

// ProductMatcher проверяет объявление по алертам покупателей.
type ProductMatcher interface {
	MatchProduct(ctx context.Context, product *models.Product) (int, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ProductInput поля объявления. При обновлении nil означает "не менять".
type ProductInput struct {
	CategoryID    *uuid.UUID
	Title         *string
	Description   *string
	Condition     *string
	Quantity      *decimal.Decimal
	UnitOfMeasure *string
	Price         *decimal.Decimal
	MarketPrice   *decimal.Decimal
	WeightPerUnit *decimal.Decimal
	Dimensions    *string
	LocationLat   *float64
	LocationLong  *float64
	LocationName  *string
	Status        *string
}

// ProductDetails объявление с фотографиями и расчётной скидкой.
type ProductDetails struct {
	models.Product
	Images            []models.ProductImage `json:"images"`
	SavingsPercentage int64                 `json:"savings_percentage"`
}

type ProductService struct {
	products ProductRepository
	images   ProductImageRepository
	users    userGetter
	storage  ImageStorage
	matcher  ProductMatcher
	// async запускает фоновую задачу; в тестах подменяется синхронным вызовом.
	async func(fn func())
}

func NewProductService(products ProductRepository, images ProductImageRepository, users userGetter, store ImageStorage, matcher ProductMatcher) *ProductService {
	return &ProductService{
		products: products,
		images:   images,
		users:    users,
		storage:  store,
		matcher:  matcher,
		async:    goroutine.SafeGo,
	}
}

// List возвращает объявления. По умолчанию только активные.
func (s *ProductService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if f.Status == "" {
		f.Status = models.ProductStatusActive
	} else if err := validation.ValidateOneOf("status", f.Status, models.ValidProductStatuses); err != nil {
		return nil, err
	}
	if f.Condition != "" {
		if err := validation.ValidateOneOf("condition", f.Condition, models.ValidConditions); err != nil {
			return nil, err
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperror.Validation("min_price не может быть больше max_price")
	}
	if f.Limit <= 0 {
		f.Limit = defaultProductLimit
	}
	if f.Limit > maxProductLimit {
		f.Limit = maxProductLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Query = strings.TrimSpace(f.Query)

	products, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductDetails, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.ProductImage{}
	}
	return &ProductDetails{
		Product:           *product,
		Images:            images,
		SavingsPercentage: valueobject.SavingsPercentage(product.Price, product.MarketPrice),
	}, nil
}

// Create размещает объявление продавца и запускает проверку алертов.
func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, in ProductInput) (*models.Product, error) {
	seller, err := s.users.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !seller.IsSeller {
		return nil, ErrNotSeller
	}

	if in.Title == nil || in.Condition == nil || in.UnitOfMeasure == nil || in.Price == nil || in.Quantity == nil {
		return nil, apperror.Validation("title, condition, unit_of_measure, price и quantity обязательны")
	}

	product := &models.Product{
		SellerID: sellerID,
		Status:   models.ProductStatusActive,
	}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	if product.Status == models.ProductStatusActive {
		s.scheduleMatching(product)
	}
	return product, nil
}

// Update изменяет объявление владельца. Снижение цены или повторная активация запускают проверку алертов.
func (s *ProductService) Update(ctx context.Context, userID, productID uuid.UUID, in ProductInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	prevPrice := product.Price
	prevStatus := product.Status

	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	if product.Status == models.ProductStatusActive &&
		(product.Price.LessThan(prevPrice) || prevStatus != models.ProductStatusActive) {
		s.scheduleMatching(product)
	}
	return product, nil
}

// Delete снимает объявление с продажи. Удалять может владелец или администратор.
func (s *ProductService) Delete(ctx context.Context, userID uuid.UUID, role string, productID uuid.UUID) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != userID && role != models.RoleAdmin {
		return ErrNotProductOwner
	}
	return s.products.SetStatus(ctx, productID, models.ProductStatusInactive)
}

func (s *ProductService) IncrementViews(ctx context.Context, productID uuid.UUID) (int, error) {
	return s.products.IncrementViews(ctx, productID)
}

// AddImage сохраняет фотографию объявления.
func (s *ProductService) AddImage(ctx context.Context, userID, productID uuid.UUID, r io.Reader, isPrimary bool) (*models.ProductImage, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	stored, err := s.storage.SaveImage(ctx, productID, r)
	if err != nil {
		return nil, err
	}

	img := &models.ProductImage{
		ProductID: productID,
		FilePath:  stored.Path,
		FileType:  stored.MimeType,
		FileSize:  stored.Size,
		IsPrimary: isPrimary,
	}
	if err := s.images.Create(ctx, img); err != nil {
		// файл без записи в БД не нужен
		if delErr := s.storage.Delete(ctx, stored.Path); delErr != nil {
			logger.WithComponent("products").WithFields(map[string]interface{}{
				"product_id": productID,
				"path":       stored.Path,
				"error":      delErr.Error(),
			}).Warn("не удалось удалить файл фотографии")
		}
		return nil, err
	}
	return img, nil
}

func (s *ProductService) DeleteImage(ctx context.Context, userID, productID, imageID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}

	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if img.ProductID != productID {
		return repository.ErrImageNotFound
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		return err
	}
	return s.storage.Delete(ctx, img.FilePath)
}

func (s *ProductService) ownedProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != userID {
		return nil, ErrNotProductOwner
	}
	return product, nil
}

func (s *ProductService) scheduleMatching(product *models.Product) {
	if s.matcher == nil {
		return
	}
	snapshot := *product
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), matchTimeout)
		defer cancel()

		log := logger.WithComponent("alert_matching").WithField("product_id", snapshot.ID)
		matched, err := s.matcher.MatchProduct(ctx, &snapshot)
		if err != nil {
			log.WithError(err).Error("проверка алертов завершилась ошибкой")
			return
		}
		log.WithField("matched", matched).Debug("проверка алертов завершена")
	})
}

func applyProductInput(p *models.Product, in ProductInput) error {
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validation.ValidateProductTitle(title); err != nil {
			return err
		}
		p.Title = title
	}
	if in.Description != nil {
		if err := validation.ValidateOptionalText("описание", in.Description, validation.MaxDescriptionLength); err != nil {
			return err
		}
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Condition != nil {
		if err := validation.ValidateOneOf("condition", *in.Condition, models.ValidConditions); err != nil {
			return err
		}
		p.Condition = *in.Condition
	}
	if in.UnitOfMeasure != nil {
		if err := validation.ValidateOneOf("unit_of_measure", *in.UnitOfMeasure, models.ValidUnits); err != nil {
			return err
		}
		p.UnitOfMeasure = *in.UnitOfMeasure
	}
	if in.Quantity != nil {
		qty, err := valueobject.NormalizeAmount("quantity", *in.Quantity)
		if err != nil {
			return err
		}
		p.Quantity = qty
	}
	if in.Price != nil {
		price, err := valueobject.NormalizeAmount("price", *in.Price)
		if err != nil {
			return err
		}
		p.Price = price
	}
	if in.MarketPrice != nil {
		market, err := valueobject.NormalizeAmount("market_price", *in.MarketPrice)
		if err != nil {
			return err
		}
		p.MarketPrice = decimal.NewNullDecimal(market)
	}
	if in.WeightPerUnit != nil {
		weight, err := valueobject.NormalizeAmount("weight_per_unit", *in.WeightPerUnit)
		if err != nil {
			return err
		}
		p.WeightPerUnit = decimal.NewNullDecimal(weight)
	}
	if in.Dimensions != nil {
		p.Dimensions = emptyToNil(in.Dimensions)
	}
	if in.LocationLat != nil || in.LocationLong != nil {
		if err := validation.ValidateCoordinates(in.LocationLat, in.LocationLong); err != nil {
			return err
		}
		p.LocationLat = in.LocationLat
		p.LocationLong = in.LocationLong
	}
	if in.LocationName != nil {
		if err := validation.ValidateOptionalText("местоположение", in.LocationName, validation.MaxLocationNameLength); err != nil {
			return err
		}
		p.LocationName = emptyToNil(in.LocationName)
	}
	if in.Status != nil {
		if err := validation.ValidateOneOf("status", *in.Status, models.ValidProductStatuses); err != nil {
			return err
		}
		p.Status = *in.Status
	}
	return nil
}
