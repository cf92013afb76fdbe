package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/middleware"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrInvalidUUID отдаётся клиенту, когда идентификатор в пути или query не разобран.
var ErrInvalidUUID = errors.New("неверный формат UUID")

// RespondError пишет {"error": message}.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.ErrorResponse{Error: message})
}

func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// RespondAppError отдаёт доменную ошибку с её статусом.
// Всё остальное логируется и уходит клиенту как безликая 500.
func RespondAppError(c *gin.Context, err error) {
	if status, message, ok := apperror.Public(err); ok {
		RespondError(c, status, message)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("request failed")
	RespondError(c, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

// RequireUser возвращает пользователя из контекста или отвечает 401.
func RequireUser(c *gin.Context) (uuid.UUID, bool) {
	if userID, ok := c.Get(middleware.ContextUserIDKey); ok {
		if id, ok := userID.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	RespondUnauthorized(c, "")
	return uuid.Nil, false
}

// CurrentUserRole роль из access токена, пустая строка для анонима.
func CurrentUserRole(c *gin.Context) string {
	return c.GetString(middleware.ContextRoleKey)
}

// RequireUUIDParam разбирает UUID из пути или отвечает 400.
func RequireUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	if id, ok := middleware.ParsedUUID(c, name); ok {
		return id, true
	}
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, ErrInvalidUUID.Error())
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON разбирает тело запроса или отвечает 400.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondBadRequest(c, "ошибка валидации запроса: "+err.Error())
		return false
	}
	return true
}

// GetPagination читает limit/offset. Некорректные значения заменяются на умолчания.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit", defaultPageSize)
	offset = queryInt(c, "offset", 0)
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
