package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/storage"
)

type recordingMatcher struct {
	mu       sync.Mutex
	products []models.Product
}

func (m *recordingMatcher) MatchProduct(_ context.Context, p *models.Product) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, *p)
	return 1, nil
}

func (m *recordingMatcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

type memoryImages struct {
	images    map[uuid.UUID]*models.ProductImage
	createErr error
}

func newMemoryImages() *memoryImages {
	return &memoryImages{images: make(map[uuid.UUID]*models.ProductImage)}
}

func (m *memoryImages) Create(_ context.Context, img *models.ProductImage) error {
	if m.createErr != nil {
		return m.createErr
	}
	img.ID = uuid.New()
	m.images[img.ID] = img
	return nil
}

func (m *memoryImages) GetByID(_ context.Context, id uuid.UUID) (*models.ProductImage, error) {
	img, ok := m.images[id]
	if !ok {
		return nil, repository.ErrImageNotFound
	}
	return img, nil
}

func (m *memoryImages) ListByProduct(_ context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var out []models.ProductImage
	for _, img := range m.images {
		if img.ProductID == productID {
			out = append(out, *img)
		}
	}
	return out, nil
}

func (m *memoryImages) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.images, id)
	return nil
}

type memoryStorage struct {
	saved   []string
	deleted []string
}

func (m *memoryStorage) SaveImage(_ context.Context, productID uuid.UUID, r io.Reader) (*storage.StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	path := "products/" + productID.String() + "/" + uuid.NewString() + ".jpg"
	m.saved = append(m.saved, path)
	return &storage.StoredFile{Path: path, MimeType: "image/jpeg", Size: int64(len(data))}, nil
}

func (m *memoryStorage) Delete(_ context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	return nil
}

type productFixture struct {
	seller   *models.User
	products *mockProductRepo
	users    *mockUserRepo
	images   *memoryImages
	storage  *memoryStorage
	matcher  *recordingMatcher
	svc      *ProductService
}

func newProductFixture() *productFixture {
	seller := &models.User{ID: uuid.New(), Role: models.RoleSeller, IsSeller: true, IsVerified: true}
	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, seller.ID).Return(seller, nil)

	f := &productFixture{
		seller:   seller,
		products: new(mockProductRepo),
		users:    users,
		images:   newMemoryImages(),
		storage:  &memoryStorage{},
		matcher:  &recordingMatcher{},
	}
	f.svc = NewProductService(f.products, f.images, f.users, f.storage, f.matcher)
	f.svc.async = func(fn func()) { fn() }
	return f
}

func validProductInput() ProductInput {
	return ProductInput{
		Title:         ptr("Керамическая плитка 30x30"),
		Condition:     ptr(models.ConditionOpenedUnused),
		UnitOfMeasure: ptr(models.UnitSqm),
		Quantity:      ptr(dec("12.5")),
		Price:         ptr(dec("18.50")),
		MarketPrice:   ptr(dec("30")),
		LocationLat:   ptr(amsLat),
		LocationLong:  ptr(amsLng),
	}
}

func TestProductService_CreateSchedulesMatching(t *testing.T) {
	f := newProductFixture()
	f.products.On("Create", mock.Anything, mock.Anything).Return(nil)

	product, err := f.svc.Create(context.Background(), f.seller.ID, validProductInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.Equal(t, models.ProductStatusActive, product.Status)
	assert.Equal(t, f.seller.ID, product.SellerID)
	assert.Equal(t, 1, f.matcher.calls())
}

func TestProductService_CreateRequiresSeller(t *testing.T) {
	f := newProductFixture()
	buyer := &models.User{ID: uuid.New(), Role: models.RoleBuyer}
	f.users.On("GetByID", mock.Anything, buyer.ID).Return(buyer, nil)

	_, err := f.svc.Create(context.Background(), buyer.ID, validProductInput())
	assert.ErrorIs(t, err, ErrNotSeller)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *ProductInput)
	}{
		{"без цены", func(in *ProductInput) { in.Price = nil }},
		{"отрицательная цена", func(in *ProductInput) { in.Price = ptr(dec("-1")) }},
		{"три знака в цене", func(in *ProductInput) { in.Price = ptr(dec("1.005")) }},
		{"неизвестная единица", func(in *ProductInput) { in.UnitOfMeasure = ptr("barrel") }},
		{"неизвестное состояние", func(in *ProductInput) { in.Condition = ptr("used") }},
		{"только долгота", func(in *ProductInput) { in.LocationLat = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProductFixture()
			in := validProductInput()
			tt.mutate(&in)

			_, err := f.svc.Create(context.Background(), f.seller.ID, in)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
			f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_UpdateMatchesOnPriceDrop(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		in        ProductInput
		wantMatch bool
	}{
		{"цена снижена", models.ProductStatusActive, ProductInput{Price: ptr(dec("15"))}, true},
		{"цена повышена", models.ProductStatusActive, ProductInput{Price: ptr(dec("25"))}, false},
		{"только описание", models.ProductStatusActive, ProductInput{Description: ptr("новое")}, false},
		{"повторная активация", models.ProductStatusInactive, ProductInput{Status: ptr(models.ProductStatusActive)}, true},
		{"снижена у снятого", models.ProductStatusInactive, ProductInput{Price: ptr(dec("5"))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProductFixture()
			existing := &models.Product{ID: uuid.New(), SellerID: f.seller.ID, Price: dec("20"), Status: tt.status}
			f.products.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
			f.products.On("Update", mock.Anything, mock.Anything).Return(nil)

			_, err := f.svc.Update(context.Background(), f.seller.ID, existing.ID, tt.in)
			require.NoError(t, err)
			if tt.wantMatch {
				assert.Equal(t, 1, f.matcher.calls())
			} else {
				assert.Zero(t, f.matcher.calls())
			}
		})
	}
}

func TestProductService_UpdateByStranger(t *testing.T) {
	f := newProductFixture()
	existing := &models.Product{ID: uuid.New(), SellerID: f.seller.ID, Price: dec("20"), Status: models.ProductStatusActive}
	f.products.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	_, err := f.svc.Update(context.Background(), uuid.New(), existing.ID, ProductInput{Price: ptr(dec("1"))})
	assert.ErrorIs(t, err, ErrNotProductOwner)
}

func TestProductService_Delete(t *testing.T) {
	f := newProductFixture()
	existing := &models.Product{ID: uuid.New(), SellerID: f.seller.ID, Status: models.ProductStatusActive}
	f.products.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	f.products.On("SetStatus", mock.Anything, existing.ID, models.ProductStatusInactive).Return(nil).Twice()

	assert.ErrorIs(t, f.svc.Delete(context.Background(), uuid.New(), models.RoleBuyer, existing.ID), ErrNotProductOwner)
	assert.NoError(t, f.svc.Delete(context.Background(), f.seller.ID, models.RoleSeller, existing.ID))
	assert.NoError(t, f.svc.Delete(context.Background(), uuid.New(), models.RoleAdmin, existing.ID))
	f.products.AssertExpectations(t)
}

func TestProductService_GetComputesSavings(t *testing.T) {
	f := newProductFixture()
	existing := &models.Product{ID: uuid.New(), SellerID: f.seller.ID, Price: dec("18.50")}
	existing.MarketPrice.Decimal, existing.MarketPrice.Valid = dec("37"), true
	f.products.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	details, err := f.svc.Get(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), details.SavingsPercentage)
	assert.NotNil(t, details.Images)
}

func TestProductService_ListDefaults(t *testing.T) {
	f := newProductFixture()
	f.products.On("List", mock.Anything, models.ProductFilter{
		Status: models.ProductStatusActive,
		Query:  "плитка",
		Limit:  maxProductLimit,
	}).Return([]models.Product(nil), nil)

	products, err := f.svc.List(context.Background(), models.ProductFilter{Query: "  плитка ", Limit: 1000, Offset: -3})
	require.NoError(t, err)
	assert.NotNil(t, products)

	_, err = f.svc.List(context.Background(), models.ProductFilter{MinPrice: ptr(dec("10")), MaxPrice: ptr(dec("5"))})
	assert.True(t, apperror.IsValidation(err))
}

func TestProductService_AddImageRemovesFileOnDBFailure(t *testing.T) {
	f := newProductFixture()
	existing := &models.Product{ID: uuid.New(), SellerID: f.seller.ID}
	f.products.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	img, err := f.svc.AddImage(context.Background(), f.seller.ID, existing.ID, bytes.NewReader([]byte("jpeg")), true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), img.FileSize)
	assert.True(t, img.IsPrimary)

	f.images.createErr = errors.New("insert failed")
	_, err = f.svc.AddImage(context.Background(), f.seller.ID, existing.ID, bytes.NewReader([]byte("jpeg")), false)
	assert.Error(t, err)
	require.Len(t, f.storage.saved, 2)
	assert.Equal(t, []string{f.storage.saved[1]}, f.storage.deleted)
}

func TestProductService_DeleteImageOfAnotherProduct(t *testing.T) {
	f := newProductFixture()
	mine := &models.Product{ID: uuid.New(), SellerID: f.seller.ID}
	f.products.On("GetByID", mock.Anything, mine.ID).Return(mine, nil)

	foreign := &models.ProductImage{ProductID: uuid.New(), FilePath: "x.jpg"}
	require.NoError(t, f.images.Create(context.Background(), foreign))

	err := f.svc.DeleteImage(context.Background(), f.seller.ID, mine.ID, foreign.ID)
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
	assert.Empty(t, f.storage.deleted)
}
