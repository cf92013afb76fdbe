package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// UserHandler обслуживает профиль и заявки продавцов.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me обрабатывает GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	user, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe обрабатывает PATCH /users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Username:             req.Username,
		Phone:                req.Phone,
		BusinessName:         req.BusinessName,
		TaxID:                req.TaxID,
		DefaultPickupAddress: req.DefaultPickupAddress,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ApplySeller обрабатывает POST /users/me/apply-seller.
func (h *UserHandler) ApplySeller(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.ApplySellerRequest
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := h.users.ApplySeller(c.Request.Context(), userID, service.ApplySellerInput{
		BusinessName:         req.BusinessName,
		TaxID:                req.TaxID,
		DefaultPickupAddress: req.DefaultPickupAddress,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PublicProfile обрабатывает GET /users/:id.
func (h *UserHandler) PublicProfile(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	seller, err := h.users.PublicProfile(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

// VerifySeller обрабатывает POST /users/:id/verify-seller (admin).
func (h *UserHandler) VerifySeller(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.VerifySellerRequest
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := h.users.VerifySeller(c.Request.Context(), id, *req.Approved)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PendingSellers обрабатывает GET /admin/sellers/pending.
func (h *UserHandler) PendingSellers(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	users, err := h.users.ListPendingSellers(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(users, len(users), limit, offset))
}
