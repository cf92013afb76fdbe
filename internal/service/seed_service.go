package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
)

// seedPassword пароль всех демо-пользователей.
const seedPassword = "Demo12345"

// SeedUserRepository операции с пользователями, нужные для демо-данных.
type SeedUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ApplySeller(ctx context.Context, userID uuid.UUID, businessName string, taxID, pickupAddress *string) (bool, error)
	SetVerification(ctx context.Context, userID uuid.UUID, approved bool) (*models.User, error)
}

type seedProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
}

type seedProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status string) ([]models.Project, error)
}

type seedCategoryRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// SeedResult что было создано при заполнении.
type SeedResult struct {
	UsersCreated    int `json:"users_created"`
	ProductsCreated int `json:"products_created"`
	ProjectsCreated int `json:"projects_created"`
}

// SeedService создаёт демо-данные для разработки. Повторный запуск ничего не дублирует.
type SeedService struct {
	users      SeedUserRepository
	products   seedProductRepository
	projects   seedProjectRepository
	categories seedCategoryRepository
}

func NewSeedService(users SeedUserRepository, products seedProductRepository, projects seedProjectRepository, categories seedCategoryRepository) *SeedService {
	return &SeedService{users: users, products: products, projects: projects, categories: categories}
}

type seedListing struct {
	title     string
	category  string
	condition string
	unit      string
	quantity  string
	price     string
	market    string
	lat, lng  float64
	place     string
}

// Объявления вокруг Амстердама.
var seedListings = []seedListing{
	{"Oak flooring planks", "Flooring", models.ConditionOpenedUnused, models.UnitSqm, "42", "18.50", "32.00", 52.3676, 4.9041, "Amsterdam Centrum"},
	{"Porcelain floor tiles 60x60", "Tiles", models.ConditionNew, models.UnitSqm, "25", "12.00", "21.00", 52.3508, 4.9180, "Amsterdam Oost"},
	{"Red facing bricks", "Bricks & Blocks", models.ConditionNew, models.UnitCount, "1200", "0.35", "0.60", 52.3874, 4.8462, "Westpoort"},
	{"Mineral wool insulation rolls", "Insulation", models.ConditionCutUndamaged, models.UnitSqm, "60", "3.20", "5.50", 52.3105, 4.9447, "Amsterdam Zuidoost"},
	{"Pine lumber 45x95", "Lumber", models.ConditionSlightlyDamaged, models.UnitLinearMeter, "150", "1.10", "2.40", 52.5168, 4.6643, "Haarlem Noord"},
}

// Seed создаёт отсутствующие демо-данные.
func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed service: hash password %w", err)
	}
	result := &SeedResult{}

	if _, err := s.ensureUser(ctx, "admin@cocreate.local", "admin", models.RoleAdmin, string(hash), result); err != nil {
		return nil, err
	}
	seller, err := s.ensureUser(ctx, "seller1@cocreate.local", "seller1", models.RoleBuyer, string(hash), result)
	if err != nil {
		return nil, err
	}
	buyer, err := s.ensureUser(ctx, "buyer1@cocreate.local", "buyer1", models.RoleBuyer, string(hash), result)
	if err != nil {
		return nil, err
	}

	if !seller.IsSeller {
		pickup := "Amsterdam, Houthavens 12"
		if _, err := s.users.ApplySeller(ctx, seller.ID, "Amsterdam Surplus Materials", nil, &pickup); err != nil {
			return nil, fmt.Errorf("seed service: apply seller %w", err)
		}
		if _, err := s.users.SetVerification(ctx, seller.ID, true); err != nil {
			return nil, fmt.Errorf("seed service: verify seller %w", err)
		}
	}

	if err := s.ensureListings(ctx, seller.ID, result); err != nil {
		return nil, err
	}

	projects, err := s.projects.ListByOwner(ctx, buyer.ID, "")
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		project := &models.Project{
			OwnerID:     buyer.ID,
			Name:        "Kitchen renovation",
			Description: "Полы и плитка для кухни",
			Budget:      decimal.NewNullDecimal(decimal.NewFromInt(2500)),
			Status:      models.ProjectStatusActive,
		}
		if err := s.projects.Create(ctx, project); err != nil {
			return nil, err
		}
		result.ProjectsCreated++
	}

	logger.WithComponent("seed").WithFields(map[string]interface{}{
		"users":    result.UsersCreated,
		"products": result.ProductsCreated,
		"projects": result.ProjectsCreated,
	}).Info("демо-данные загружены")
	return result, nil
}

func (s *SeedService) ensureUser(ctx context.Context, email, username, role, hash string, result *SeedResult) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("seed service: create %s %w", username, err)
	}
	result.UsersCreated++
	return user, nil
}

func (s *SeedService) ensureListings(ctx context.Context, sellerID uuid.UUID, result *SeedResult) error {
	existing, err := s.products.List(ctx, models.ProductFilter{SellerID: &sellerID, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]uuid.UUID, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	for _, l := range seedListings {
		lat, lng, place := l.lat, l.lng, l.place
		product := &models.Product{
			SellerID:      sellerID,
			Title:         l.title,
			Description:   "Остатки после объекта, самовывоз или доставка.",
			Condition:     l.condition,
			Quantity:      decimal.RequireFromString(l.quantity),
			UnitOfMeasure: l.unit,
			Price:         decimal.RequireFromString(l.price),
			MarketPrice:   decimal.NewNullDecimal(decimal.RequireFromString(l.market)),
			LocationLat:   &lat,
			LocationLong:  &lng,
			LocationName:  &place,
			Status:        models.ProductStatusActive,
		}
		if id, ok := byName[l.category]; ok {
			product.CategoryID = &id
		}
		if err := s.products.Create(ctx, product); err != nil {
			return err
		}
		result.ProductsCreated++
	}
	return nil
}
