package routes

import (
	"github.com/gin-gonic/gin"

	"sqlplayground/internal/handlers"
)

type HintRoutes struct {
	handler *handlers.HintHandler
}

func NewHintRoutes(handler *handlers.HintHandler) *HintRoutes {
	return &HintRoutes{handler: handler}
}

func (r *HintRoutes) RegisterRoutes(router *gin.RouterGroup) {
	hints := router.Group("/hints")
	{
		hints.GET("", r.handler.ListHints)
		hints.GET("/:hint_id", r.handler.GetHint)
	}
}
