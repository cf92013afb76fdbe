package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
)

func init() {
	passwordCost = bcrypt.MinCost
}

// memAuthRepo хранит пользователей и сессии в памяти.
type memAuthRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	sessions map[string]*models.Session
}

func newMemAuthRepo() *memAuthRepo {
	return &memAuthRepo{
		users:    make(map[uuid.UUID]*models.User),
		sessions: make(map[string]*models.Session),
	}
}

func (r *memAuthRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	u.IsActive = true
	r.users[u.ID] = u
	return nil
}

func (r *memAuthRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memAuthRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *memAuthRepo) CreateSession(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	r.sessions[s.RefreshToken] = s
	return nil
}

func (r *memAuthRepo) DeleteSession(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[token]
	delete(r.sessions, token)
	return ok, nil
}

func (r *memAuthRepo) UpdateLastLoginAt(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *memAuthRepo) seed(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     "builder",
		PasswordHash: string(hash),
		Role:         models.RoleBuyer,
		IsActive:     true,
	}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

func newAuthForTest() (*AuthService, *memAuthRepo, *TokenManager) {
	repo := newMemAuthRepo()
	tokens := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewAuthService(repo, tokens), repo, tokens
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc, repo, _ := newAuthForTest()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Email:    "  Test.User@Example.com ",
		Password: "Password123",
	}, SessionMeta{IP: "127.0.0.1"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.User.ID)
	assert.Equal(t, "test.user@example.com", res.User.Email)
	assert.Equal(t, "test_user", res.User.Username)
	assert.Equal(t, models.RoleBuyer, res.User.Role)
	assert.False(t, res.User.IsSeller)

	require.Len(t, repo.sessions, 1)
	session := repo.sessions[res.TokenPair.RefreshToken]
	require.NotNil(t, session)
	require.NotNil(t, session.IPAddress)
	assert.Equal(t, "127.0.0.1", *session.IPAddress)
	assert.Nil(t, session.UserAgent)

	login, err := svc.Login(ctx, LoginInput{Email: "TEST.USER@example.com", Password: "Password123"}, SessionMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, login.TokenPair.AccessToken)
	assert.NotNil(t, login.User.LastLoginAt)
	assert.Len(t, repo.sessions, 2)
}

func TestAuthService_RegisterRejects(t *testing.T) {
	svc, repo, _ := newAuthForTest()
	repo.seed(t, "taken@example.com", "Password123")
	badPhone := "call me"

	tests := []struct {
		name  string
		in    RegisterInput
		check func(error) bool
	}{
		{"email занят", RegisterInput{Email: "taken@example.com", Password: "Password123", Username: "another"}, func(err error) bool { return assert.ErrorIs(t, err, ErrEmailTaken) }},
		{"слабый пароль", RegisterInput{Email: "weak@example.com", Password: "short"}, apperror.IsValidation},
		{"кривой email", RegisterInput{Email: "no-at-sign", Password: "Password123"}, apperror.IsValidation},
		{"телефон", RegisterInput{Email: "p@example.com", Password: "Password123", Phone: &badPhone}, apperror.IsValidation},
		{"username с цифры", RegisterInput{Email: "u@example.com", Password: "Password123", Username: "1abc"}, apperror.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in, SessionMeta{})
			require.Error(t, err)
			assert.True(t, tt.check(err), "получили %v", err)
		})
	}
	assert.Empty(t, repo.sessions)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, repo, _ := newAuthForTest()
	repo.seed(t, "user@example.com", "Password123")
	blocked := repo.seed(t, "blocked@example.com", "Password123")
	blocked.IsActive = false
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Wrong1234"}, SessionMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	// неизвестный email неотличим от неверного пароля
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Password123"}, SessionMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "blocked@example.com", Password: "Password123"}, SessionMeta{})
	assert.ErrorIs(t, err, ErrAccountBlocked)
	assert.Empty(t, repo.sessions)
}

func TestAuthService_RefreshIsSingleUse(t *testing.T) {
	svc, repo, _ := newAuthForTest()
	ctx := context.Background()
	repo.seed(t, "user@example.com", "Password123")

	login, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Password123"}, SessionMeta{})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, login.TokenPair.RefreshToken, SessionMeta{UserAgent: "curl"})
	require.NoError(t, err)
	assert.NotEqual(t, login.TokenPair.RefreshToken, next.RefreshToken)
	require.NotNil(t, repo.sessions[next.RefreshToken].UserAgent)

	_, err = svc.Refresh(ctx, login.TokenPair.RefreshToken, SessionMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = svc.Refresh(ctx, "not-a-token", SessionMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	// access токен не годится как refresh
	_, err = svc.Refresh(ctx, next.AccessToken, SessionMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestAuthService_RefreshBlockedUser(t *testing.T) {
	svc, repo, _ := newAuthForTest()
	ctx := context.Background()
	user := repo.seed(t, "user@example.com", "Password123")

	login, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Password123"}, SessionMeta{})
	require.NoError(t, err)
	user.IsActive = false

	_, err = svc.Refresh(ctx, login.TokenPair.RefreshToken, SessionMeta{})
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestAuthService_LogoutAndVerify(t *testing.T) {
	svc, repo, tokens := newAuthForTest()
	ctx := context.Background()
	user := repo.seed(t, "user@example.com", "Password123")

	pair, _, _, err := tokens.GeneratePair(user)
	require.NoError(t, err)

	got, err := svc.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Verify(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidAccess)

	require.NoError(t, svc.Logout(ctx, "unknown"))

	other := &models.User{ID: uuid.New(), Role: models.RoleBuyer}
	ghost, _, _, err := tokens.GeneratePair(other)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, ghost.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidAccess)
}

func TestDeriveUsername(t *testing.T) {
	assert.Equal(t, "john_doe", deriveUsername("john.doe@example.com"))
	assert.Equal(t, "a_b_c", deriveUsername("a+b-c@example.com"))
	assert.Equal(t, "mariya", deriveUsername("Mariya@example.com"))

	for _, email := range []string{"1@example.com", "42abc@example.com", "ж@example.com"} {
		got := deriveUsername(email)
		assert.True(t, strings.HasPrefix(got, "user_"), "%s -> %s", email, got)
	}

	long := deriveUsername(strings.Repeat("a", 50) + "@example.com")
	assert.Len(t, long, 30)
}
