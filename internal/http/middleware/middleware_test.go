package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

type stubParser struct {
	userID uuid.UUID
	role   string
	err    error
}

func (p stubParser) ParseAccess(string) (uuid.UUID, string, error) {
	return p.userID, p.role, p.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	r := gin.New()
	r.GET("/me", AuthMiddleware(stubParser{userID: userID, role: "buyer"}), func(c *gin.Context) {
		id, _ := c.Get(ContextUserIDKey)
		c.String(http.StatusOK, id.(uuid.UUID).String())
	})
	r.GET("/broken", AuthMiddleware(stubParser{err: errors.New("expired")}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/broken", "token").Code)

	w := perform(r, http.MethodGet, "/me", "token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }

	r := gin.New()
	r.GET("/buyer", AuthMiddleware(stubParser{userID: uuid.New(), role: "buyer"}), RequireAdmin(), handler)
	r.GET("/admin", AuthMiddleware(stubParser{userID: uuid.New(), role: "admin"}), RequireAdmin(), handler)

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/buyer", "t").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/admin", "t").Code)
}

func TestRequireRole(t *testing.T) {
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }

	r := gin.New()
	r.GET("/seller", AuthMiddleware(stubParser{userID: uuid.New(), role: "seller"}), RequireRole("seller", "admin"), handler)
	r.GET("/anon", RequireRole("seller"), handler)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/seller", "t").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/anon", "").Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", tt.header)

		token, ok := BearerToken(c)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestUUIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id", UUIDValidator("id"), func(c *gin.Context) {
		id, ok := ParsedUUID(c, "id")
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/orders/not-a-uuid", "").Code)

	id := uuid.New()
	w := perform(r, http.MethodGet, "/orders/"+id.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperror.New(apperror.ErrCodeConflict, "спор уже решён"))
	})
	r.GET("/internal", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused"))
	})

	w := perform(r, http.MethodGet, "/conflict", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "спор уже решён")

	w = perform(r, http.MethodGet, "/internal", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/login", RateLimitMiddleware(memory.NewStore(), 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/login", "").Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method, origin string, preflight bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/x", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if preflight {
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodOptions, "http://localhost:3000", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	w = do(http.MethodOptions, "http://evil.example", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = do(http.MethodGet, "http://evil.example", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = do(http.MethodGet, "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Vary"))
}
