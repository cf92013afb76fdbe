package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository"
	"github.com/ignatzorin/cocreate-backend/internal/validation"
)

var (
	ErrEmailTaken     = apperror.New(apperror.ErrCodeConflict, "email уже зарегистрирован")
	ErrAccountBlocked = apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	ErrInvalidRefresh = apperror.New(apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	ErrInvalidAccess  = apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден")
)

// passwordCost переопределяется в тестах.
var passwordCost = bcrypt.DefaultCost

// хеш для сравнения, когда email не найден: время ответа не выдаёт существование аккаунта
var absentUserHash, _ = bcrypt.GenerateFromPassword([]byte("absent-user-password"), bcrypt.DefaultCost)

type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, refreshToken string) (bool, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
}

// SessionMeta откуда пришёл клиент. Пустые поля не сохраняются.
type SessionMeta struct {
	UserAgent string
	IP        string
}

type RegisterInput struct {
	Email    string
	Password string
	Username string
	Phone    *string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// AuthService регистрирует пользователей и ведёт их сессии.
// Refresh токен живёт в таблице sessions и гасится при первом использовании.
type AuthService struct {
	repo   AuthRepository
	tokens *TokenManager
}

func NewAuthService(repo AuthRepository, tokens *TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register создаёт покупателя и сразу открывает ему сессию.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta SessionMeta) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = deriveUsername(email)
	}

	for _, check := range []error{
		validation.ValidateEmail(email),
		validation.ValidatePassword(in.Password),
		validation.ValidatePhone(in.Phone),
		validation.ValidateUsername(username),
	} {
		if check != nil {
			return nil, check
		}
	}

	switch _, err := s.repo.GetByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleBuyer,
		Phone:        in.Phone,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, meta)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput, meta SessionMeta) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(absentUserHash, []byte(in.Password))
		return nil, apperror.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountBlocked
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		logger.WithComponent("auth").WithFields(logrus.Fields{
			"user_id": user.ID,
		}).WithError(err).Warn("last_login_at не обновлён")
	}
	return s.startSession(ctx, user, meta)
}

// Refresh обменивает refresh токен на новую пару. Повторное предъявление того же токена отклоняется.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	consumed, err := s.repo.DeleteSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrInvalidRefresh
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountBlocked
	}

	res, err := s.startSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return res.TokenPair, nil
}

// Logout идемпотентен: неизвестный токен не ошибка.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.repo.DeleteSession(ctx, refreshToken)
	return err
}

// Verify возвращает владельца access токена.
func (s *AuthService) Verify(ctx context.Context, accessToken string) (*models.User, error) {
	userID, _, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrInvalidAccess
	}

	user, err := s.repo.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, ErrInvalidAccess
	case err != nil:
		return nil, err
	case !user.IsActive:
		return nil, ErrAccountBlocked
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, meta SessionMeta) (*AuthResult, error) {
	pair, _, refreshExp, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
		UserAgent:    optional(meta.UserAgent),
		IPAddress:    optional(meta.IP),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// deriveUsername john.doe@x.com -> john_doe. Слишком короткие или
// начинающиеся с цифры имена заменяются на user_xxxxxx.
func deriveUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '+' || r == '-':
			return '_'
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			return unicode.ToLower(r)
		default:
			return -1
		}
	}, local)

	if len(name) < validation.MinUsernameLength || unicode.IsDigit(rune(name[0])) {
		name = "user_" + uuid.NewString()[:6]
	}
	if len(name) > validation.MaxUsernameLength {
		name = name[:validation.MaxUsernameLength]
	}
	return name
}
