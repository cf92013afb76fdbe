package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// NotificationHandler лента событий пользователя (то же, что приходит в сокет).
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications GET /notifications?unread_only=true&event=order_created
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	filter, ok := notificationFilter(c)
	if !ok {
		return
	}

	items, err := h.notifications.ListNotifications(c.Request.Context(), userID, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items, len(items), filter.Limit, filter.Offset))
}

// CountUnread GET /notifications/unread/count
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	n, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: n})
}

// MarkAllAsRead PUT /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAsRead PUT /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	h.owned(c, h.notifications.MarkAsRead)
}

// DeleteNotification DELETE /notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	h.owned(c, h.notifications.DeleteNotification)
}

// owned операция над своим уведомлением; чужое или отсутствующее даёт 404.
func (h *NotificationHandler) owned(c *gin.Context, op func(ctx context.Context, id, userID uuid.UUID) error) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := op(c.Request.Context(), id, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func notificationFilter(c *gin.Context) (models.NotificationFilter, bool) {
	limit, offset := common.GetPagination(c)
	f := models.NotificationFilter{Event: c.Query("event"), Limit: limit, Offset: offset}

	if raw := c.Query("unread_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			common.RespondBadRequest(c, "unread_only должен быть true или false")
			return f, false
		}
		f.UnreadOnly = v
	}
	return f, true
}
