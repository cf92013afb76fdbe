package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// FlagHandler обслуживает жалобы на объявления, заказы и пользователей.
type FlagHandler struct {
	flags *service.FlagService
}

func NewFlagHandler(flags *service.FlagService) *FlagHandler {
	return &FlagHandler{flags: flags}
}

// Create POST /flags
func (h *FlagHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	var req dto.CreateFlagRequest
	if !common.BindJSON(c, &req) {
		return
	}

	flag, err := h.flags.Create(c.Request.Context(), userID, service.CreateFlagInput{
		FlagType:      req.FlagType,
		Reason:        req.Reason,
		Description:   req.Description,
		ProductID:     req.ProductID,
		OrderID:       req.OrderID,
		FlaggedUserID: req.FlaggedUserID,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flag)
}

// List GET /flags?status=
func (h *FlagHandler) List(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	role := common.CurrentUserRole(c)
	limit, offset := common.GetPagination(c)

	flags, err := h.flags.List(c.Request.Context(), userID, role, c.Query("status"), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(flags, len(flags), limit, offset))
}

// Pending GET /flags/pending (admin)
func (h *FlagHandler) Pending(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	flags, err := h.flags.Pending(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(flags, len(flags), limit, offset))
}

// Get GET /flags/:id
func (h *FlagHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	role := common.CurrentUserRole(c)

	flag, err := h.flags.Get(c.Request.Context(), userID, role, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, flag)
}

// UpdateStatus PATCH /flags/:id/status (admin)
func (h *FlagHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateFlagStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}

	flag, err := h.flags.UpdateStatus(c.Request.Context(), adminID, id, req.Status, req.AdminNotes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, flag)
}
