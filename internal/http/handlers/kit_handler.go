package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// KitHandler обслуживает ограниченные по времени наборы.
type KitHandler struct {
	kits *service.KitService
}

func NewKitHandler(kits *service.KitService) *KitHandler {
	return &KitHandler{kits: kits}
}

func kitInput(req dto.KitRequest) service.KitInput {
	items := make([]service.KitItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.KitItemInput{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
		})
	}
	return service.KitInput{
		Title:               req.Title,
		Slug:                req.Slug,
		Description:         req.Description,
		ShortDescription:    req.ShortDescription,
		KitType:             req.KitType,
		Price:               req.Price,
		MarketPrice:         req.MarketPrice,
		QuantityAvailable:   req.QuantityAvailable,
		MaxQuantityPerOrder: req.MaxQuantityPerOrder,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Status:              req.Status,
		Specifications:      req.Specifications,
		Items:               items,
	}
}

// List GET /kits?kit_type=&status=
func (h *KitHandler) List(c *gin.Context) {
	kits, err := h.kits.List(c.Request.Context(), c.Query("kit_type"), c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kits": kits})
}

// Active GET /kits/active
func (h *KitHandler) Active(c *gin.Context) {
	kits, err := h.kits.Active(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kits": kits})
}

// Upcoming GET /kits/upcoming
func (h *KitHandler) Upcoming(c *gin.Context) {
	kits, err := h.kits.Upcoming(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kits": kits})
}

// Get GET /kits/:slug
func (h *KitHandler) Get(c *gin.Context) {
	kit, err := h.kits.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, kit)
}

// IncrementViews POST /kits/:slug/views
func (h *KitHandler) IncrementViews(c *gin.Context) {
	views, err := h.kits.IncrementViews(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ViewsResponse{Views: views})
}

// Create POST /kits (admin)
func (h *KitHandler) Create(c *gin.Context) {
	var req dto.KitRequest
	if !common.BindJSON(c, &req) {
		return
	}
	kit, err := h.kits.Create(c.Request.Context(), kitInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, kit)
}

// Update PUT /kits/:slug (admin)
func (h *KitHandler) Update(c *gin.Context) {
	var req dto.KitRequest
	if !common.BindJSON(c, &req) {
		return
	}
	kit, err := h.kits.Update(c.Request.Context(), c.Param("slug"), kitInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, kit)
}

// Delete DELETE /kits/:slug (admin)
func (h *KitHandler) Delete(c *gin.Context) {
	if err := h.kits.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
