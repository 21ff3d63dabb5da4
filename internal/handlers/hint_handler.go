package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sqlplayground/internal/hints"
	"sqlplayground/internal/responses"
)

type HintHandler struct {
	matcher *hints.Matcher
}

func NewHintHandler(matcher *hints.Matcher) *HintHandler {
	return &HintHandler{matcher: matcher}
}

type hintSummary struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Severity hints.Severity `json:"severity"`
}

// ListHints handles GET /api/v1/hints
func (h *HintHandler) ListHints(c *gin.Context) {
	rules := h.matcher.Rules()
	list := make([]hintSummary, 0, len(rules))
	for _, r := range rules {
		list = append(list, hintSummary{ID: r.ID, Title: r.Title, Severity: r.Severity})
	}

	responses.Success(c, http.StatusOK, list, "Hints retrieved successfully")
}

// GetHint handles GET /api/v1/hints/:hint_id
func (h *HintHandler) GetHint(c *gin.Context) {
	rule, ok := h.matcher.Lookup(c.Param("hint_id"))
	if !ok {
		responses.Fail(c, http.StatusNotFound, nil, "Hint not found")
		return
	}

	responses.Success(c, http.StatusOK, rule, "Hint retrieved successfully")
}
