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

const maxSubmissionBytes = 64 << 10

// PublicHandler accepts step submissions from published funnels.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers the intake routes under /funnels.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:funnelId/submissions", h.SubmitStep)
}

// SubmitStep stores a step and returns the lead's new score. It answers 201 when the
// lead was scored and 202 when the submission is waiting for an e-mail address.
func (h *PublicHandler) SubmitStep(c *gin.Context) {
	funnelID, err := uuid.Parse(c.Param("funnelId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes)
	var req transport.SubmitStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	resp, err := h.svc.SubmitStep(c.Request.Context(), funnelID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	if !resp.Scored {
		httpkit.Accepted(c, resp)
		return
	}
	httpkit.Created(c, resp)
}
