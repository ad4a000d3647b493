package model

import (
	"github.com/google/uuid"
)

// StartSessionRequest is the payload for opening a skill session. AttemptID
// and ExamID are present when the session belongs to a mock attempt, so the
// result can be associated back to it.
type StartSessionRequest struct {
	TestID    uuid.UUID  `json:"test_id" binding:"required"`
	AttemptID *uuid.UUID `json:"attempt_id" binding:"omitempty"`
	ExamID    *uuid.UUID `json:"exam_id" binding:"omitempty"`
}

// SaveAnswerRequest is the payload for capturing a single answer.
type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Answer     string `json:"answer" binding:"required"`
}

// AudioProgressRequest reports elapsed/duration of the active part's audio.
type AudioProgressRequest struct {
	Elapsed  float64 `json:"elapsed" binding:"min=0"`
	Duration float64 `json:"duration" binding:"min=0"`
}

// SessionStateView is the recovery snapshot returned on page reload: the
// current phase, remaining seconds, and everything autosaved so far.
type SessionStateView struct {
	SessionID        uuid.UUID         `json:"session_id"`
	TestID           uuid.UUID         `json:"test_id"`
	Skill            Skill             `json:"skill"`
	Phase            string            `json:"phase"`
	PartIndex        int               `json:"part_index"`
	Remaining        int               `json:"remaining_seconds"`
	AudioActive      bool              `json:"audio_active"`
	AudioPercent     float64           `json:"audio_percent"`
	AnsweredCount    int               `json:"answered_count"`
	AutosavedAnswers map[string]string `json:"autosaved_answers"`
	Result           *SkillResult      `json:"result,omitempty"`
}
