package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// WishlistHandler обслуживает сохранённые объявления.
type WishlistHandler struct {
	wishlist *service.WishlistService
}

func NewWishlistHandler(wishlist *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

// List GET /wishlist
func (h *WishlistHandler) List(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)

	products, err := h.wishlist.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(products, len(products), limit, offset))
}

// Toggle POST /wishlist/toggle
func (h *WishlistHandler) Toggle(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.WishlistToggleRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.wishlist.Toggle(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Remove DELETE /wishlist/:productId
func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	productID, ok := common.RequireUUIDParam(c, "productId")
	if !ok {
		return
	}

	if err := h.wishlist.Remove(c.Request.Context(), userID, productID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
