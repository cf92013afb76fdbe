package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/models"
)

func TestTokenManager_AccessRoundTrip(t *testing.T) {
	m := NewTokenManager("access", "refresh", 15*time.Minute, time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	pair, _, _, err := m.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if pair.ExpiresIn != 900 {
		t.Fatalf("expires_in = %d, ожидалось 900", pair.ExpiresIn)
	}

	id, role, err := m.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if id != user.ID || role != models.RoleAdmin {
		t.Fatalf("получили %s/%s", id, role)
	}

	claims, err := m.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if claims.Subject != user.ID.String() || claims.ID == "" {
		t.Fatalf("неожиданные клеймы refresh: %+v", claims)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleBuyer}
	now := time.Now()

	forge := func(method jwt.SigningMethod, key interface{}, claims *SessionClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	expired := m.newClaims(user, tokenKindAccess, now.Add(-2*time.Hour), now.Add(-time.Hour))
	foreignIssuer := m.newClaims(user, tokenKindAccess, now, now.Add(time.Minute))
	foreignIssuer.Issuer = "someone-else"
	// refresh-клеймы, подписанные access-секретом
	wrongKind := m.newClaims(user, tokenKindRefresh, now, now.Add(time.Minute))

	tests := []struct {
		name  string
		token string
	}{
		{"мусор", "not-a-token"},
		{"истёк", forge(jwt.SigningMethodHS256, []byte("access"), expired)},
		{"чужой секрет", forge(jwt.SigningMethodHS256, []byte("other"), m.newClaims(user, tokenKindAccess, now, now.Add(time.Minute)))},
		{"HS512", forge(jwt.SigningMethodHS512, []byte("access"), m.newClaims(user, tokenKindAccess, now, now.Add(time.Minute)))},
		{"alg none", forge(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, m.newClaims(user, tokenKindAccess, now, now.Add(time.Minute)))},
		{"чужой issuer", forge(jwt.SigningMethodHS256, []byte("access"), foreignIssuer)},
		{"refresh вместо access", forge(jwt.SigningMethodHS256, []byte("access"), wrongKind)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := m.ParseAccess(tt.token); err == nil {
				t.Fatalf("токен должен быть отклонён")
			}
		})
	}
}
