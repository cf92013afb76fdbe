package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

// ProjectHandler обслуживает проекты покупателя.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func projectInput(req dto.ProjectRequest) service.ProjectInput {
	return service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
		ClearBudget: req.ClearBudget,
		Status:      req.Status,
	}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	var req dto.ProjectRequest
	if !common.BindJSON(c, &req) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, projectInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	projects, err := h.projects.List(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), userID, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ProjectRequest
	if !common.BindJSON(c, &req) {
		return
	}

	project, err := h.projects.Update(c.Request.Context(), userID, id, projectInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Orders GET /projects/:id/orders
func (h *ProjectHandler) Orders(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	orders, err := h.projects.Orders(c.Request.Context(), userID, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
