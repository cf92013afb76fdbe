package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/cocreate-backend/internal/dto"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers/common"
	"github.com/ignatzorin/cocreate-backend/internal/service"
)

type DisputeHandler struct {
	svc *service.DisputeService
}

func NewDisputeHandler(s *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{svc: s}
}

// CreateDispute POST /disputes
func (h *DisputeHandler) CreateDispute(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.OpenDisputeRequest
	if !common.BindJSON(c, &req) {
		return
	}

	dispute, err := h.svc.Open(c.Request.Context(), userID, service.OpenDisputeInput{
		OrderID:     req.OrderID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// ListDisputes GET /disputes
func (h *DisputeHandler) ListDisputes(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	role := common.CurrentUserRole(c)
	limit, offset := common.GetPagination(c)

	disputes, err := h.svc.List(c.Request.Context(), userID, role, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(disputes, len(disputes), limit, offset))
}

// ListOpen GET /disputes/open (admin)
func (h *DisputeHandler) ListOpen(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	disputes, err := h.svc.ListOpen(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(disputes, len(disputes), limit, offset))
}

// GetDispute GET /disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}
	role := common.CurrentUserRole(c)

	dispute, err := h.svc.Get(c.Request.Context(), userID, role, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// AddEvidence POST /disputes/:id/evidence
func (h *DisputeHandler) AddEvidence(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.DisputeEvidenceRequest
	if !common.BindJSON(c, &req) {
		return
	}

	dispute, err := h.svc.AddEvidence(c.Request.Context(), userID, id, req.Evidence)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Review POST /disputes/:id/review (admin)
func (h *DisputeHandler) Review(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	dispute, err := h.svc.Review(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Resolve POST /disputes/:id/resolve (admin)
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if !common.BindJSON(c, &req) {
		return
	}

	dispute, err := h.svc.Resolve(c.Request.Context(), adminID, id, service.ResolveDisputeInput{
		ResolutionType:  req.ResolutionType,
		RefundAmount:    req.RefundAmount,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Close POST /disputes/:id/close (admin)
func (h *DisputeHandler) Close(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	dispute, err := h.svc.Close(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}
