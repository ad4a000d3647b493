package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/response"
)

// examCatalog is the slice of TestService the catalog endpoint needs.
type examCatalog interface {
	ListMockExams(ctx context.Context, page, perPage int) ([]model.MockExam, int, error)
}

// ExamHandler serves the mock exam catalog.
type ExamHandler struct {
	exams examCatalog
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams examCatalog) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// List godoc
// GET /api/v1/exams
// Returns the mock exam catalog, paginated.
func (h *ExamHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1, 1, 10000)
	perPage := queryInt(c, "per_page", 20, 1, 100)

	exams, total, err := h.exams.ListMockExams(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.MockExam{}
	}

	response.SuccessWithPagination(c, http.StatusOK, exams, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// queryInt parses an integer query parameter, clamped to [min, max].
func queryInt(c *gin.Context, name string, fallback, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
