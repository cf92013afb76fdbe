package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// CartHandler обслуживает корзину покупателя.
type CartHandler struct {
	cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// GetCart GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	cart, err := h.cart.Get(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.AddCartItemRequest
	if !common.BindJSON(c, &req) {
		return
	}

	cart, err := h.cart.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// SetQuantity PUT /cart/items/:productId
func (h *CartHandler) SetQuantity(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	productID, ok := common.RequireUUIDParam(c, "productId")
	if !ok {
		return
	}

	var req dto.SetCartQuantityRequest
	if !common.BindJSON(c, &req) {
		return
	}

	cart, err := h.cart.SetQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	productID, ok := common.RequireUUIDParam(c, "productId")
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(c.Request.Context(), userID, productID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	if err := h.cart.Clear(c.Request.Context(), userID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
