package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/service"
	"github.com/ignatzorin/cocreate-backend/internal/ws"
)

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{name: "database up", wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "database down", pingErr: errors.New("connection refused"), wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer mockDB.Close()

			mock.ExpectPing().WillReturnError(tt.pingErr)

			r := newRouter(nil, "")
			r.GET("/health", NewHealthHandler(sqlx.NewDb(mockDB, "sqlmock"), nil).Health)

			w := doJSON(r, http.MethodGet, "/health", nil)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.NotContains(t, resp.Checks, "redis")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthHandler_RedisDownIsDegraded(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()
	mock.ExpectPing()

	// на этом порту никто не слушает
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()

	h := NewHealthHandler(sqlx.NewDb(mockDB, "sqlmock"), rdb)
	r := newRouter(nil, "")
	r.GET("/health", h.Health)
	r.GET("/health/live", h.Live)

	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["database"])
	assert.Contains(t, resp.Checks["redis"], "degraded")

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/health/live", nil).Code)
}

type stubTokens struct {
	userID uuid.UUID
	err    error
}

func (s stubTokens) ParseAccess(string) (uuid.UUID, string, error) {
	return s.userID, models.RoleBuyer, s.err
}

func TestWSHandler_Handle_RejectsMissingOrInvalidToken(t *testing.T) {
	hub := ws.NewHub(context.Background(), nil)

	tests := []struct {
		name   string
		path   string
		tokens stubTokens
	}{
		{name: "no token", path: "/ws", tokens: stubTokens{userID: uuid.New()}},
		{name: "invalid token", path: "/ws?token=garbage", tokens: stubTokens{err: errors.New("signature is invalid")}},
		{name: "nil subject", path: "/ws?token=anonymous", tokens: stubTokens{userID: uuid.Nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(nil, "")
			r.GET("/ws", NewWSHandler(hub, tt.tokens, nil).Handle)

			w := doJSON(r, http.MethodGet, tt.path, nil)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestWSHandler_CheckOrigin(t *testing.T) {
	h := NewWSHandler(ws.NewHub(context.Background(), nil), stubTokens{}, []string{"https://cocreate.example"})

	allowed, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	allowed.Header.Set("Origin", "https://cocreate.example")
	foreign, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	foreign.Header.Set("Origin", "https://evil.example")
	bare, _ := http.NewRequest(http.MethodGet, "/ws", nil)

	assert.True(t, h.upgrader.CheckOrigin(allowed))
	assert.False(t, h.upgrader.CheckOrigin(foreign))
	assert.True(t, h.upgrader.CheckOrigin(bare))
}

// memoryKits хранит наборы по slug.
type memoryKits struct {
	kits map[string]models.Kit
}

func (m *memoryKits) List(_ context.Context, _ repository.KitFilter) ([]models.Kit, error) {
	out := make([]models.Kit, 0, len(m.kits))
	for _, k := range m.kits {
		out = append(out, k)
	}
	return out, nil
}

func (m *memoryKits) GetBySlug(_ context.Context, slug string) (*models.Kit, error) {
	k, ok := m.kits[slug]
	if !ok {
		return nil, repository.ErrKitNotFound
	}
	return &k, nil
}

func (m *memoryKits) Create(_ context.Context, k *models.Kit) error {
	if _, ok := m.kits[k.Slug]; ok {
		return repository.ErrKitExists
	}
	k.ID = uuid.New()
	m.kits[k.Slug] = *k
	return nil
}

func (m *memoryKits) Update(_ context.Context, slug string, k *models.Kit) error {
	if _, ok := m.kits[slug]; !ok {
		return repository.ErrKitNotFound
	}
	m.kits[slug] = *k
	return nil
}

func (m *memoryKits) Delete(_ context.Context, slug string) error {
	if _, ok := m.kits[slug]; !ok {
		return repository.ErrKitNotFound
	}
	delete(m.kits, slug)
	return nil
}

func (m *memoryKits) IncrementViews(_ context.Context, slug string) (int, error) {
	k, ok := m.kits[slug]
	if !ok {
		return 0, repository.ErrKitNotFound
	}
	k.Views++
	m.kits[slug] = k
	return k.Views, nil
}

func TestKitHandler_Get_UnknownSlug(t *testing.T) {
	r := newRouter(nil, "")
	handler := NewKitHandler(service.NewKitService(&memoryKits{kits: map[string]models.Kit{}}))
	r.GET("/kits/:slug", handler.Get)

	w := doJSON(r, http.MethodGet, "/kits/no-such-kit", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "набор не найден", errorMessage(t, w))
}

func TestKitHandler_CreateThenView(t *testing.T) {
	adminID := uuid.New()
	repo := &memoryKits{kits: map[string]models.Kit{}}
	r := newRouter(&adminID, models.RoleAdmin)
	handler := NewKitHandler(service.NewKitService(repo))
	r.POST("/kits", handler.Create)
	r.POST("/kits/:slug/views", handler.IncrementViews)

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	w := doJSON(r, http.MethodPost, "/kits", map[string]any{
		"title":                  "Starter Tile Kit",
		"slug":                   "starter-tile-kit",
		"kit_type":               "bathroom",
		"price":                  decimal.NewFromInt(300),
		"market_price":           decimal.NewFromInt(400),
		"quantity_available":     10,
		"max_quantity_per_order": 2,
		"start_date":             start,
		"end_date":               start.Add(7 * 24 * time.Hour),
		"items":                  []map[string]any{{"name": "Плитка 30x30", "quantity": "12 m2"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created service.KitView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "starter-tile-kit", created.Slug)
	assert.EqualValues(t, 25, created.SavingsPercentage)

	w = doJSON(r, http.MethodPost, "/kits/starter-tile-kit/views", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"views":1}`, w.Body.String())
}

func TestKitHandler_Create_RequiresDates(t *testing.T) {
	adminID := uuid.New()
	r := newRouter(&adminID, models.RoleAdmin)
	handler := &KitHandler{kits: nil}
	r.POST("/kits", handler.Create)

	w := doJSON(r, http.MethodPost, "/kits", map[string]any{"title": "Без дат"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
