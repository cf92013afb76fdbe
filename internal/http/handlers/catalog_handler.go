package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// CatalogHandler обслуживает категории и объявления.
type CatalogHandler struct {
	categories *service.CategoryService
	products   *service.ProductService
}

func NewCatalogHandler(categories *service.CategoryService, products *service.ProductService) *CatalogHandler {
	return &CatalogHandler{categories: categories, products: products}
}

// ListCategories GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory GET /categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory POST /categories (admin)
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if !common.BindJSON(c, &req) {
		return
	}
	category, err := h.categories.Create(c.Request.Context(), service.CategoryInput{Name: req.Name, Icon: req.Icon})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory PUT /categories/:id (admin)
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !common.BindJSON(c, &req) {
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, service.CategoryInput{Name: req.Name, Icon: req.Icon})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory DELETE /categories/:id (admin)
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProducts GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	products, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(products, len(products), filter.Limit, filter.Offset))
}

// GetProduct GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !common.BindJSON(c, &req) {
		return
	}

	product, err := h.products.Create(c.Request.Context(), userID, productInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct PUT /products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !common.BindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), userID, id, productInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	role := common.CurrentUserRole(c)

	if err := h.products.Delete(c.Request.Context(), userID, role, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// IncrementViews POST /products/:id/views
func (h *CatalogHandler) IncrementViews(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	views, err := h.products.IncrementViews(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ViewsResponse{Views: views})
}

func productInput(req dto.ProductRequest) service.ProductInput {
	return service.ProductInput{
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		Condition:     req.Condition,
		Quantity:      req.Quantity,
		UnitOfMeasure: req.UnitOfMeasure,
		Price:         req.Price,
		MarketPrice:   req.MarketPrice,
		WeightPerUnit: req.WeightPerUnit,
		Dimensions:    req.Dimensions,
		LocationLat:   req.LocationLat,
		LocationLong:  req.LocationLong,
		LocationName:  req.LocationName,
		Status:        req.Status,
	}
}

func productFilterFromQuery(c *gin.Context) (models.ProductFilter, error) {
	limit, offset := common.GetPagination(c)
	f := models.ProductFilter{
		Condition: c.Query("condition"),
		Status:    c.Query("status"),
		Query:     c.Query("q"),
		Ordering:  c.Query("ordering"),
		Limit:     limit,
		Offset:    offset,
	}

	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, common.ErrInvalidUUID
		}
		f.CategoryID = &id
	}
	if raw := c.Query("seller_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, common.ErrInvalidUUID
		}
		f.SellerID = &id
	}
	if raw := c.Query("min_price"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return f, err
		}
		f.MinPrice = &v
	}
	if raw := c.Query("max_price"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return f, err
		}
		f.MaxPrice = &v
	}
	return f, nil
}
