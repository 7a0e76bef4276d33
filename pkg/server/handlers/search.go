package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coalesce-search/coalesce"
	"github.com/coalesce-search/coalesce/pkg/server/dto"
	"github.com/coalesce-search/coalesce/pkg/types"
)

// SearchHandler handles fusion search requests.
type SearchHandler struct {
	fuser coalesce.PassageFuser
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(fuser coalesce.PassageFuser) *SearchHandler {
	return &SearchHandler{fuser: fuser}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if req.Limit == 0 {
		req.Limit = coalesce.DefaultLimit
	}

	candidates, err := h.fuser.Fuse(c.Request.Context(), req.Query, req.TenantID, req.Limit)
	if err != nil {
		status := http.StatusInternalServerError
		code := "search_failed"
		if errors.Is(err, types.ErrDimensionMismatch) {
			// Operator misconfiguration, not a transient fault.
			code = "dimension_mismatch"
		}
		c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.FromCandidates(candidates))
}
