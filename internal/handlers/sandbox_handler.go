package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/responses"
	"sqlplayground/internal/services"
)

type SandboxHandler struct {
	sandboxService *services.SandboxService
}

func NewSandboxHandler(sandboxService *services.SandboxService) *SandboxHandler {
	return &SandboxHandler{
		sandboxService: sandboxService,
	}
}

// CreateSandbox handles POST /api/v1/sandboxes
func (h *SandboxHandler) CreateSandbox(c *gin.Context) {
	sb, err := h.sandboxService.Create(c.Request.Context())
	if err != nil {
		failWithServiceError(c, err, "Failed to create sandbox")
		return
	}

	responses.Success(c, http.StatusCreated, sb.Info(), "Sandbox created successfully")
}

// ResetSandbox handles POST /api/v1/sandboxes/:id/reset
func (h *SandboxHandler) ResetSandbox(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	sb, err := h.sandboxService.Reset(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, err, "Failed to reset sandbox")
		return
	}

	responses.Success(c, http.StatusOK, sb.Info(), "Sandbox reset successfully")
}

// DeleteSandbox handles DELETE /api/v1/sandboxes/:id
func (h *SandboxHandler) DeleteSandbox(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	if err := h.sandboxService.Delete(c.Request.Context(), id); err != nil {
		failWithServiceError(c, err, "Failed to delete sandbox")
		return
	}

	responses.Success(c, http.StatusOK, nil, "Sandbox deleted successfully")
}
