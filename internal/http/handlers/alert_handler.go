package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// AlertHandler обслуживает сохранённые поиски покупателей.
type AlertHandler struct {
	alerts *service.AlertService
}

func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

func alertInput(req dto.AlertRequest) service.AlertInput {
	return service.AlertInput{
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		Keywords:      req.Keywords,
		MaxPrice:      req.MaxPrice,
		Condition:     req.Condition,
		LocationLat:   req.LocationLat,
		LocationLong:  req.LocationLong,
		LocationName:  req.LocationName,
		RadiusKm:      req.RadiusKm,
		Frequency:     req.Frequency,
		IsActive:      req.IsActive,
		ClearLocation: req.ClearLocation,
		ClearMaxPrice: req.ClearMaxPrice,
	}
}

// Create POST /alerts
func (h *AlertHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	var req dto.AlertRequest
	if !common.BindJSON(c, &req) {
		return
	}

	alert, err := h.alerts.Create(c.Request.Context(), userID, alertInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// List GET /alerts?active=true
func (h *AlertHandler) List(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	alerts, err := h.alerts.List(c.Request.Context(), userID, c.Query("active") == "true")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Get GET /alerts/:id
func (h *AlertHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	alert, err := h.alerts.Get(c.Request.Context(), userID, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Update PUT /alerts/:id
func (h *AlertHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AlertRequest
	if !common.BindJSON(c, &req) {
		return
	}

	alert, err := h.alerts.Update(c.Request.Context(), userID, id, alertInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Delete DELETE /alerts/:id
func (h *AlertHandler) Delete(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.alerts.Delete(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckMatches POST /alerts/check-matches
func (h *AlertHandler) CheckMatches(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	matches, err := h.alerts.CheckMatches(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckMatchesResponse{Matches: matches})
}

// Notifications GET /alerts/:id/notifications
func (h *AlertHandler) Notifications(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)

	notifications, err := h.alerts.Notifications(c.Request.Context(), userID, id, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(notifications, len(notifications), limit, offset))
}

// MarkNotificationRead POST /alerts/notifications/:id/read
func (h *AlertHandler) MarkNotificationRead(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.alerts.MarkNotificationRead(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "уведомление прочитано"})
}
