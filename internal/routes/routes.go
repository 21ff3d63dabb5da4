package routes

import (
	"github.com/gin-gonic/gin"

	"sqlplayground/internal/handlers"
	"sqlplayground/internal/services"
	"sqlplayground/internal/web"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Sandbox *handlers.SandboxHandler
	Query   *handlers.QueryHandler
	Schema  *handlers.SchemaHandler
	Table   *handlers.TableHandler
	Hint    *handlers.HintHandler
	Page    *handlers.PageHandler
}

func RegisterRoutes(router *gin.Engine, sandboxService *services.SandboxService, h Handlers) {
	api := router.Group("/api/v1")

	sandboxRoutes := NewSandboxRoutes(h.Sandbox, sandboxService)
	sandboxRoutes.RegisterRoutes(api)

	queryRoutes := NewQueryRoutes(h.Query, sandboxService)
	queryRoutes.RegisterRoutes(api)

	schemaRoutes := NewSchemaRoutes(h.Schema, sandboxService)
	schemaRoutes.RegisterRoutes(api)

	tableRoutes := NewTableRoutes(h.Table, sandboxService)
	tableRoutes.RegisterRoutes(api)

	hintRoutes := NewHintRoutes(h.Hint)
	hintRoutes.RegisterRoutes(api)

	router.StaticFS("/static", web.Static())
	router.GET("/", h.Page.Index)
	router.GET("/healthz", h.Page.Health)
}
