package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sqlplayground/internal/logging"
	"sqlplayground/internal/middlewares"
	"sqlplayground/internal/responses"
	"sqlplayground/internal/services"
)

// failWithServiceError maps service errors to HTTP statuses.
func failWithServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrSandboxNotFound):
		responses.Fail(c, http.StatusNotFound, err, "Sandbox not found")
	case errors.Is(err, services.ErrTooManySandboxes):
		responses.Fail(c, http.StatusServiceUnavailable, err, message)
	default:
		logging.Error(message, "path", c.FullPath(), "err", err)
		responses.Fail(c, http.StatusInternalServerError, err, message)
	}
}

// sandboxID reads the id set by middlewares.ResolveSandbox.
func sandboxID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middlewares.SandboxIDKey)
	if !exists {
		responses.Fail(c, http.StatusBadRequest, nil, "Sandbox id is required")
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		responses.Fail(c, http.StatusInternalServerError, nil, "Invalid sandbox id format")
		return uuid.Nil, false
	}
	return id, true
}
