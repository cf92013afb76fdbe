package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт новый хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder обрабатывает POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !common.BindJSON(c, &req) {
		return
	}

	lines := make([]models.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, models.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.Create(c.Request.Context(), models.CreateOrderInput{
		BuyerID:        userID,
		ProjectID:      req.ProjectID,
		DeliveryMethod: req.DeliveryMethod,
		Lines:          lines,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders обрабатывает GET /orders?as=buyer|seller.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	as := c.DefaultQuery("as", "buyer")
	if as != "buyer" && as != "seller" {
		common.RespondBadRequest(c, "параметр as должен быть buyer или seller")
		return
	}
	limit, offset := common.GetPagination(c)

	orders, err := h.orders.List(c.Request.Context(), userID, as == "seller", limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(orders, len(orders), limit, offset))
}

// GetOrder обрабатывает GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	role := common.CurrentUserRole(c)

	order, err := h.orders.Get(c.Request.Context(), userID, role, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateDeliveryStatus обрабатывает PATCH /orders/:id/delivery-status.
func (h *OrderHandler) UpdateDeliveryStatus(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDeliveryStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateDeliveryStatus(c.Request.Context(), userID, orderID, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ConfirmDelivery обрабатывает POST /orders/:id/confirm.
func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Confirm(c.Request.Context(), userID, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
