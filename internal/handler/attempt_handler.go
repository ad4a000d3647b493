package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fluentprep/fluentprep-backend/internal/middleware"
	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/response"
	"github.com/fluentprep/fluentprep-backend/internal/service"
	"github.com/fluentprep/fluentprep-backend/internal/validator"
)

// AttemptHandler handles mock exam attempt endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	sessionService *service.SessionService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, sessionService *service.SessionService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		sessionService: sessionService,
	}
}

func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownSkill):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownSkill)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrFinalizeNotReady):
		response.Fail(c, http.StatusConflict, response.ErrFinalizeNotReady)
	case errors.Is(err, service.ErrFinalizeFailed):
		response.Fail(c, http.StatusInternalServerError, response.ErrFinalizeFailed)
	case errors.Is(err, service.ErrAttemptScored):
		response.Fail(c, http.StatusConflict, response.ErrAttemptScored)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Create godoc
// POST /api/v1/attempts
// Opens a new attempt against a mock exam.
func (h *AttemptHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Create(c.Request.Context(), claims.CandidateID, req.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, attempt)
}

// Get godoc
// GET /api/v1/attempts/:attempt_id
// Returns the attempt with its per-skill submission status refreshed.
func (h *AttemptHandler) Get(c *gin.Context) {
	claims, attemptID, ok := h.resolveAttempt(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), claims.CandidateID, attemptID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, attempt)
}

// StartSkill godoc
// POST /api/v1/attempts/:attempt_id/skills/:skill/start
// Opens a session for one skill of the attempt's exam.
func (h *AttemptHandler) StartSkill(c *gin.Context) {
	claims, attemptID, ok := h.resolveAttempt(c)
	if !ok {
		return
	}

	attempt, testID, err := h.attemptService.StartSkill(c.Request.Context(), claims.CandidateID, attemptID, c.Param("skill"))
	if err != nil {
		failAttemptError(c, err)
		return
	}

	sess, payload, err := h.sessionService.Start(c.Request.Context(), claims.CandidateID, model.StartSessionRequest{
		TestID:    testID,
		AttemptID: &attempt.ID,
		ExamID:    &attempt.ExamID,
	})
	if err != nil {
		failSessionError(c, err)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), sess)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt": attempt,
		"session": state,
		"test":    payload,
	})
}

// Finalize godoc
// POST /api/v1/attempts/:attempt_id/finalize
// Aggregates submitted skill results into the overall CEFR level.
func (h *AttemptHandler) Finalize(c *gin.Context) {
	claims, attemptID, ok := h.resolveAttempt(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Finalize(c.Request.Context(), claims.CandidateID, attemptID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, attempt)
}

func (h *AttemptHandler) resolveAttempt(c *gin.Context) (*middleware.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, attemptID, true
}
