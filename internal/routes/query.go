package routes

import (
	"github.com/gin-gonic/gin"

	"sqlplayground/internal/handlers"
	"sqlplayground/internal/middlewares"
	"sqlplayground/internal/services"
)

type QueryRoutes struct {
	handler        *handlers.QueryHandler
	sandboxService *services.SandboxService
}

func NewQueryRoutes(handler *handlers.QueryHandler, sandboxService *services.SandboxService) *QueryRoutes {
	return &QueryRoutes{handler: handler, sandboxService: sandboxService}
}

func (r *QueryRoutes) RegisterRoutes(router *gin.RouterGroup) {
	query := router.Group("/sandboxes/:id/query")
	query.Use(middlewares.ResolveSandbox(r.sandboxService))
	{
		// Query execution endpoints
		query.POST("/execute", r.handler.ExecuteQuery)
		query.GET("/history", r.handler.GetQueryHistory)
	}
}
