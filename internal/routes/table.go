package routes

import (
	"github.com/gin-gonic/gin"

	"sqlplayground/internal/handlers"
	"sqlplayground/internal/middlewares"
	"sqlplayground/internal/services"
)

type TableRoutes struct {
	handler        *handlers.TableHandler
	sandboxService *services.SandboxService
}

func NewTableRoutes(handler *handlers.TableHandler, sandboxService *services.SandboxService) *TableRoutes {
	return &TableRoutes{handler: handler, sandboxService: sandboxService}
}

func (r *TableRoutes) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/sandboxes/:id/tables")
	tables.Use(middlewares.ResolveSandbox(r.sandboxService))
	{
		tables.GET("/:table/rows", r.handler.GetRows)
		tables.DELETE("/:table", r.handler.DeleteTable)
	}
}
