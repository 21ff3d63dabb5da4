package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/responses"
	"sqlplayground/internal/services"
	"sqlplayground/internal/web"
)

type QueryHandler struct {
	queryService *services.QueryService
	renderer     *web.Renderer
	historyLimit int
}

func NewQueryHandler(queryService *services.QueryService, renderer *web.Renderer, historyLimit int) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		renderer:     renderer,
		historyLimit: historyLimit,
	}
}

// ExecuteQuery executes SQL against the sandbox and returns the result,
// the hint and the redrawn tables panel.
func (h *QueryHandler) ExecuteQuery(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	var req services.ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			responses.Fail(c, http.StatusRequestEntityTooLarge, err, "Query is too large")
			return
		}
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: query is required")
		return
	}

	resp, err := h.queryService.ExecuteQuery(c.Request.Context(), id, &req)
	if err != nil {
		failWithServiceError(c, err, "Failed to execute query")
		return
	}

	tablesHTML, err := h.renderer.Tables(resp.Tables)
	if err != nil {
		failWithServiceError(c, err, "Failed to render tables")
		return
	}
	hintHTML, err := h.renderer.Hint(resp.Hint)
	if err != nil {
		failWithServiceError(c, err, "Failed to render hint")
		return
	}

	response := gin.H{
		"result":            resp.Result,
		"hint":              resp.Hint,
		"tables":            resp.Tables,
		"execution_id":      resp.HistoryID,
		"execution_time_ms": resp.Result.ExecutionTime,
		"tables_html":       tablesHTML,
		"hint_html":         hintHTML,
	}

	responses.Success(c, http.StatusOK, response, "Query executed")
}

// GetQueryHistory returns the latest runs of the sandbox, newest first.
func (h *QueryHandler) GetQueryHistory(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			responses.Fail(c, http.StatusBadRequest, err, "limit must be a positive integer")
			return
		}
		if h.historyLimit <= 0 || n < h.historyLimit {
			limit = n
		}
	}

	history, err := h.queryService.GetQueryHistory(c.Request.Context(), id, limit)
	if err != nil {
		failWithServiceError(c, err, "Failed to get query history")
		return
	}

	responses.Success(c, http.StatusOK, history, "Query history retrieved successfully")
}
