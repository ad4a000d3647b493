package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluentprep/fluentprep-backend/internal/middleware"
	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/response"
	"github.com/fluentprep/fluentprep-backend/internal/service"
	"github.com/fluentprep/fluentprep-backend/internal/validator"
)

// WritingHandler handles rubric evaluation of writing task batches.
type WritingHandler struct {
	writingService *service.WritingService
}

// NewWritingHandler creates a new WritingHandler.
func NewWritingHandler(writingService *service.WritingService) *WritingHandler {
	return &WritingHandler{writingService: writingService}
}

// Evaluate godoc
// POST /api/v1/writing/evaluate
// Scores a batch of writing tasks. The batch fails as a whole when the
// rubric oracle is unreachable.
func (h *WritingHandler) Evaluate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.EvaluateWritingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	eval, err := h.writingService.Evaluate(c.Request.Context(), req.Tasks)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrOracleUnavailable)
		return
	}
	response.Success(c, http.StatusOK, eval)
}
