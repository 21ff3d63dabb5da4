package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/responses"
	"sqlplayground/internal/services"
	"sqlplayground/internal/web"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
	renderer      *web.Renderer
}

func NewSchemaHandler(schemaService *services.SchemaService, renderer *web.Renderer) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
		renderer:      renderer,
	}
}

// GetSchema handles GET /api/v1/sandboxes/:id/schema
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	tables, err := h.schemaService.GetTables(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, err, "Failed to read schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"tables": tables}, "Schema retrieved successfully")
}

// RenderSchema handles GET /api/v1/sandboxes/:id/schema/html
func (h *SchemaHandler) RenderSchema(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	tables, err := h.schemaService.GetTables(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, err, "Failed to read schema")
		return
	}

	panel, err := h.renderer.Tables(tables)
	if err != nil {
		failWithServiceError(c, err, "Failed to render tables")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(panel))
}

// VisualizeSchema handles GET /api/v1/sandboxes/:id/schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	mermaidDiagram, err := h.schemaService.VisualizeSchema(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": mermaidDiagram,
	}, "Schema visualization generated successfully")
}
