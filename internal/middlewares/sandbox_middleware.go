package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/responses"
	"sqlplayground/internal/services"
	"sqlplayground/internal/utils"
)

// SandboxIDKey is the context key holding the resolved sandbox id.
const SandboxIDKey = "sandboxId"

// ResolveSandbox parses :id and makes sure the sandbox is live, restoring
// it from its journal when needed.
func ResolveSandbox(sandboxService *services.SandboxService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ParseUUID(c.Param("id"))
		if err != nil {
			responses.Abort(c, http.StatusBadRequest, err, "Invalid sandbox id format")
			return
		}

		if _, err := sandboxService.Get(c.Request.Context(), id); err != nil {
			switch {
			case errors.Is(err, services.ErrSandboxNotFound):
				responses.Abort(c, http.StatusNotFound, err, "Sandbox not found")
			case errors.Is(err, services.ErrTooManySandboxes):
				responses.Abort(c, http.StatusServiceUnavailable, err, "Too many active sandboxes")
			default:
				responses.Abort(c, http.StatusInternalServerError, err, "Failed to load sandbox")
			}
			return
		}

		c.Set(SandboxIDKey, id)
		c.Next()
	}
}
