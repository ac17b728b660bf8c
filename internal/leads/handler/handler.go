package handler

import (
	"net/http"

	"funnel_backend/internal/leads/service"
	"funnel_backend/internal/leads/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the authenticated lead endpoints. Every lookup is scoped to the caller.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/score", h.GetScore)
	rg.GET("/:id/score/history", h.ScoreHistory)
	rg.POST("/:id/score/recalculate", h.Recalculate)
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.ListLeads(c.Request.Context(), id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, leadID, ok := identityAndLead(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), id.UserID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) GetScore(c *gin.Context) {
	id, leadID, ok := identityAndLead(c)
	if !ok {
		return
	}

	score, err := h.svc.GetScore(c.Request.Context(), id.UserID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, score)
}

func (h *Handler) ScoreHistory(c *gin.Context) {
	id, leadID, ok := identityAndLead(c)
	if !ok {
		return
	}

	history, err := h.svc.ScoreHistory(c.Request.Context(), id.UserID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, history)
}

func (h *Handler) Recalculate(c *gin.Context) {
	id, leadID, ok := identityAndLead(c)
	if !ok {
		return
	}

	score, err := h.svc.Recalculate(c.Request.Context(), id.UserID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, score)
}

func identityAndLead(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return nil, uuid.Nil, false
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, uuid.Nil, false
	}
	return id, leadID, true
}
