package routes

import (
	"github.com/gin-gonic/gin"

	"sqlplayground/internal/handlers"
	"sqlplayground/internal/middlewares"
	"sqlplayground/internal/services"
)

type SandboxRoutes struct {
	handler        *handlers.SandboxHandler
	sandboxService *services.SandboxService
}

func NewSandboxRoutes(handler *handlers.SandboxHandler, sandboxService *services.SandboxService) *SandboxRoutes {
	return &SandboxRoutes{handler: handler, sandboxService: sandboxService}
}

func (r *SandboxRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sandboxes", r.handler.CreateSandbox)

	sandbox := router.Group("/sandboxes/:id")
	sandbox.Use(middlewares.ResolveSandbox(r.sandboxService))
	{
		sandbox.POST("/reset", r.handler.ResetSandbox)
		sandbox.DELETE("", r.handler.DeleteSandbox)
	}
}
