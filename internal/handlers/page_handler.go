package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/database"
	"sqlplayground/internal/web"
)

const pageTitle = "SQL Playground"

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, web.IndexTemplate, gin.H{
		"Title":  pageTitle,
		"Driver": database.DriverType(),
	})
}

func (h *PageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
