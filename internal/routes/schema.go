package routes

import (
	"github.com/gin-gonic/gin"

	"sqlplayground/internal/handlers"
	"sqlplayground/internal/middlewares"
	"sqlplayground/internal/services"
)

type SchemaRoutes struct {
	handler        *handlers.SchemaHandler
	sandboxService *services.SandboxService
}

func NewSchemaRoutes(handler *handlers.SchemaHandler, sandboxService *services.SandboxService) *SchemaRoutes {
	return &SchemaRoutes{handler: handler, sandboxService: sandboxService}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("/sandboxes/:id/schema")
	schema.Use(middlewares.ResolveSandbox(r.sandboxService))
	{
		schema.GET("", r.handler.GetSchema)
		schema.GET("/html", r.handler.RenderSchema)
		schema.GET("/visualize", r.handler.VisualizeSchema)
	}
}
