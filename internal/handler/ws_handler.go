package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/engine"
	"github.com/fluentprep/fluentprep-backend/internal/middleware"
	"github.com/fluentprep/fluentprep-backend/internal/service"
	ws "github.com/fluentprep/fluentprep-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams skill session events to the client and accepts session
// actions (autosave, audio lifecycle, submit) over one socket.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Upgrades to WebSocket; the server pushes countdown ticks and phase
// changes, the client sends autosaves and audio lifecycle reports.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	sess, err := h.sessionService.Get(c.Request.Context(), claims.CandidateID, sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", sessionID.String()).
		Int("candidate_id", claims.CandidateID).
		Logger()

	// Forward engine events for as long as the socket lives. The graded
	// summary rides on the finished event so the client needs no extra
	// round trip.
	sess.SetListener(func(ev engine.Event) {
		if err := conn.WriteTyped(ws.SessionEventResponse{Event: ws.EventSession, Payload: ev}); err != nil {
			wsLog.Debug().Err(err).Msg("Event write failed")
			return
		}
		if ev.Type == engine.EventFinished {
			h.writeGraded(conn, sess)
		}
	})
	defer sess.SetListener(nil)

	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, sess, &msg)
		case ws.ActionStartNow:
			h.replyAction(conn, sess.StartNow())
		case ws.ActionAudioStarted:
			h.replyAction(conn, sess.AudioStarted())
		case ws.ActionAudioBlocked:
			h.replyAction(conn, sess.AudioBlocked())
		case ws.ActionAudioProgress:
			h.replyAction(conn, sess.ReportAudioProgress(msg.Elapsed, msg.Duration))
		case ws.ActionAudioEnded:
			h.replyAction(conn, sess.AudioEnded())
		case ws.ActionSubmit:
			h.replyAction(conn, sess.ForceFinish())
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// handleAutosave saves a single answer to the ledger and Redis.
func (h *WSHandler) handleAutosave(conn *ws.Conn, sess *engine.SkillSession, msg *ws.RequestPayload) {
	if msg.QID == "" || msg.Answer == "" {
		conn.WriteError("q_id and ans are required")
		return
	}

	// QID must be a well-formed UUID to keep Redis keys clean.
	if _, err := uuid.Parse(msg.QID); err != nil {
		conn.WriteError("invalid q_id format")
		return
	}

	if err := h.sessionService.Autosave(context.Background(), sess, msg.QID, msg.Answer); err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.SuccessResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) replyAction(conn *ws.Conn, err error) {
	if err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.SuccessResponse{Event: ws.EventSuccess, Status: "ok"})
}

func (h *WSHandler) writeGraded(conn *ws.Conn, sess *engine.SkillSession) {
	result := sess.Result()
	if result == nil {
		return
	}
	conn.WriteTyped(ws.GradedResponse{
		Event:      ws.EventGraded,
		Status:     "completed",
		Percentage: result.Percentage,
		Level:      string(result.Level),
	})
}
