package handler

import (
	"net/http"

	"funnel_backend/internal/rules/service"
	"funnel_backend/internal/rules/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for an owner's scoring rules.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid scoring rule ID"
)

// New creates a new scoring rules handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/seed-defaults", h.SeedDefaults)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/toggle-active", h.ToggleActive)
}

// List retrieves the caller's rules, optionally only active ones.
// GET /api/v1/scoring-rules?active=true
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.ListRulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var (
		result transport.RuleListResponse
		err    error
	)
	if req.ActiveOnly {
		result, err = h.svc.ListActive(c.Request.Context(), identity.UserID())
	} else {
		result, err = h.svc.List(c.Request.Context(), identity.UserID())
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create stores a new rule.
// POST /api/v1/scoring-rules
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetByID retrieves one rule.
// GET /api/v1/scoring-rules/:id
func (h *Handler) GetByID(c *gin.Context) {
	identity, id, ok := identityAndRule(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update applies a partial update.
// PUT /api/v1/scoring-rules/:id
func (h *Handler) Update(c *gin.Context) {
	identity, id, ok := identityAndRule(c)
	if !ok {
		return
	}
	var req transport.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a rule permanently.
// DELETE /api/v1/scoring-rules/:id
func (h *Handler) Delete(c *gin.Context) {
	identity, id, ok := identityAndRule(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity.UserID(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleActive flips the active flag.
// PATCH /api/v1/scoring-rules/:id/toggle-active
func (h *Handler) ToggleActive(c *gin.Context) {
	identity, id, ok := identityAndRule(c)
	if !ok {
		return
	}
	result, err := h.svc.ToggleActive(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SeedDefaults installs the default rule set.
// POST /api/v1/scoring-rules/seed-defaults
func (h *Handler) SeedDefaults(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.SeedDefaults(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func identityAndRule(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return nil, uuid.Nil, false
	}
	return identity, id, true
}
