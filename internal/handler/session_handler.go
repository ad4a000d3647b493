package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fluentprep/fluentprep-backend/internal/engine"
	"github.com/fluentprep/fluentprep-backend/internal/middleware"
	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/response"
	"github.com/fluentprep/fluentprep-backend/internal/service"
	"github.com/fluentprep/fluentprep-backend/internal/validator"
)

// SessionHandler handles skill session endpoints. The WebSocket stream is
// the primary control surface; these REST endpoints cover session start,
// state recovery, and clients that cannot hold a socket open.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// failSessionError maps engine and service errors to response codes.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, engine.ErrSessionFinished):
		response.Fail(c, http.StatusConflict, response.ErrSessionFinished)
	case errors.Is(err, engine.ErrAnswerNotOpen):
		response.Fail(c, http.StatusConflict, response.ErrAnswerNotOpen)
	case errors.Is(err, engine.ErrInvalidPhase):
		response.Fail(c, http.StatusConflict, response.ErrInvalidPhase)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrTestNotAvailable):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotAvailable)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Start godoc
// POST /api/v1/sessions
// Opens a session for one skill test and returns the candidate payload.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, payload, err := h.sessionService.Start(c.Request.Context(), claims.CandidateID, req)
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
		"session": state,
		"test":    payload,
	})
}

// GetState godoc
// GET /api/v1/sessions/:session_id
// Returns the recovery snapshot: phase, countdown, autosaved answers.
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, ok := h.resolveSession(c)
	if !ok {
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), sess)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// SaveAnswer godoc
// POST /api/v1/sessions/:session_id/answers
// Autosaves a single answer outside the WebSocket stream.
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	sess, ok := h.resolveSession(c)
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Autosave(c.Request.Context(), sess, req.QuestionID, req.Answer); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// StartNow godoc
// POST /api/v1/sessions/:session_id/start-now
// Skips the remaining lead-in and moves to the first part immediately.
func (h *SessionHandler) StartNow(c *gin.Context) {
	h.sessionAction(c, func(sess *engine.SkillSession) error {
		return sess.StartNow()
	})
}

// AudioStarted godoc
// POST /api/v1/sessions/:session_id/audio/started
func (h *SessionHandler) AudioStarted(c *gin.Context) {
	h.sessionAction(c, func(sess *engine.SkillSession) error {
		return sess.AudioStarted()
	})
}

// AudioBlocked godoc
// POST /api/v1/sessions/:session_id/audio/blocked
// Reports that playback was refused; the part stays pending until retried.
func (h *SessionHandler) AudioBlocked(c *gin.Context) {
	h.sessionAction(c, func(sess *engine.SkillSession) error {
		return sess.AudioBlocked()
	})
}

// AudioProgress godoc
// POST /api/v1/sessions/:session_id/audio/progress
func (h *SessionHandler) AudioProgress(c *gin.Context) {
	sess, ok := h.resolveSession(c)
	if !ok {
		return
	}

	var req model.AudioProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.ReportAudioProgress(req.Elapsed, req.Duration); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// AudioEnded godoc
// POST /api/v1/sessions/:session_id/audio/ended
func (h *SessionHandler) AudioEnded(c *gin.Context) {
	h.sessionAction(c, func(sess *engine.SkillSession) error {
		return sess.AudioEnded()
	})
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
// Finishes the session early and returns the final state.
func (h *SessionHandler) Submit(c *gin.Context) {
	sess, ok := h.resolveSession(c)
	if !ok {
		return
	}

	if err := sess.ForceFinish(); err != nil {
		failSessionError(c, err)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), sess)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Cancel godoc
// DELETE /api/v1/sessions/:session_id
// Abandons the session without scoring and clears its cached state.
func (h *SessionHandler) Cancel(c *gin.Context) {
	sess, ok := h.resolveSession(c)
	if !ok {
		return
	}

	sess.Cancel()
	h.sessionService.Teardown(c.Request.Context(), sess)
	response.Success(c, http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *SessionHandler) resolveSession(c *gin.Context) (*engine.SkillSession, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	sess, err := h.sessionService.Get(c.Request.Context(), claims.CandidateID, sessionID)
	if err != nil {
		failSessionError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) sessionAction(c *gin.Context, fn func(*engine.SkillSession) error) {
	sess, ok := h.resolveSession(c)
	if !ok {
		return
	}
	if err := fn(sess); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
