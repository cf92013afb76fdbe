package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/models"
)

const (
	tokenIssuer = "cocreate"

	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

var errTokenKind = errors.New("token kind mismatch")

// TokenPair хранит пару access/refresh токенов. ExpiresIn в секундах.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionClaims общие клеймы обоих токенов.
type SessionClaims struct {
	Role string `json:"role,omitempty"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет JWT (HS256).
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	parser        *jwt.Parser
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GeneratePair выпускает пару токенов и возвращает моменты их истечения.
func (m *TokenManager) GeneratePair(user *models.User) (*TokenPair, time.Time, time.Time, error) {
	now := time.Now()
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	access, err := m.sign(m.newClaims(user, tokenKindAccess, now, accessExp), m.accessSecret)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("sign access: %w", err)
	}
	refresh, err := m.sign(m.newClaims(user, tokenKindRefresh, now, refreshExp), m.refreshSecret)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("sign refresh: %w", err)
	}

	pair := &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL / time.Second),
	}
	return pair, accessExp, refreshExp, nil
}

// ParseRefresh проверяет refresh токен.
func (m *TokenManager) ParseRefresh(token string) (*SessionClaims, error) {
	return m.parse(token, m.refreshSecret, tokenKindRefresh)
}

// ParseAccess возвращает пользователя и роль из access токена.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, string, error) {
	claims, err := m.parse(token, m.accessSecret, tokenKindAccess)
	if err != nil {
		return uuid.Nil, "", err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}
	return userID, claims.Role, nil
}

func (m *TokenManager) newClaims(user *models.User, kind string, now, exp time.Time) *SessionClaims {
	claims := &SessionClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if kind == tokenKindAccess {
		claims.Role = user.Role
	} else {
		// jti делает каждый refresh уникальным даже в пределах одной секунды
		claims.ID = uuid.NewString()
	}
	return claims
}

func (m *TokenManager) sign(claims *SessionClaims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *TokenManager) parse(token string, secret []byte, kind string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind != kind {
		return nil, errTokenKind
	}
	return claims, nil
}
