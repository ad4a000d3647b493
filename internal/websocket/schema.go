package websocket

import "github.com/fluentprep/fluentprep-backend/internal/engine"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave      Action = "autosave"
	ActionStartNow      Action = "start_now"
	ActionAudioStarted  Action = "audio_started"
	ActionAudioBlocked  Action = "audio_blocked"
	ActionAudioProgress Action = "audio_progress"
	ActionAudioEnded    Action = "audio_ended"
	ActionSubmit        Action = "submit"
	ActionPing          Action = "ping"
)

// RequestPayload carries every client action; unused fields stay zero.
type RequestPayload struct {
	Action   Action  `json:"action"`
	QID      string  `json:"q_id,omitempty"`
	Answer   string  `json:"ans,omitempty"`
	Elapsed  float64 `json:"elapsed,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventSession Event = "session"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
)

// SessionEventResponse forwards an engine event to the client.
type SessionEventResponse struct {
	Event   Event        `json:"event"`
	Payload engine.Event `json:"payload"`
}

type SuccessResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// GradedResponse is sent after submit for skills with an objective score.
type GradedResponse struct {
	Event      Event  `json:"event"`
	Status     string `json:"status"`
	Percentage int    `json:"percentage"`
	Level      string `json:"level"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
