package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/responses"
	"sqlplayground/internal/services"
)

type TableHandler struct {
	tableService *services.TableService
}

func NewTableHandler(tableService *services.TableService) *TableHandler {
	return &TableHandler{
		tableService: tableService,
	}
}

// GetRows handles GET /api/v1/sandboxes/:id/tables/:table/rows
func (h *TableHandler) GetRows(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "limit must be an integer")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "offset must be an integer")
		return
	}

	page, err := h.tableService.GetRows(c.Request.Context(), id, c.Param("table"), limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrTableNotFound) {
			responses.Fail(c, http.StatusNotFound, err, "Table not found")
			return
		}
		failWithServiceError(c, err, "Failed to read table")
		return
	}

	responses.Success(c, http.StatusOK, page, "Rows retrieved successfully")
}

// DeleteTable handles DELETE /api/v1/sandboxes/:id/tables/:table
func (h *TableHandler) DeleteTable(c *gin.Context) {
	id, ok := sandboxID(c)
	if !ok {
		return
	}

	err := h.tableService.DeleteTable(c.Request.Context(), id, c.Param("table"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTableNotFound):
			responses.Fail(c, http.StatusNotFound, err, "Table not found")
		case errors.Is(err, services.ErrSandboxNotFound):
			failWithServiceError(c, err, "Cannot delete the given table")
		default:
			// Engine refusals (for example a foreign key) are the caller's problem.
			responses.Fail(c, http.StatusBadRequest, err, "Cannot delete the given table")
		}
		return
	}

	responses.Success(c, http.StatusOK, nil, "Table deleted successfully")
}
