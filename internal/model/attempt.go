package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptState enumerates the mock attempt lifecycle. A failed finalize
// returns the attempt to READY; it never sticks in FINALIZING.
type AttemptState string

const (
	AttemptStateAssembling AttemptState = "ASSEMBLING"
	AttemptStateReady      AttemptState = "READY"
	AttemptStateFinalizing AttemptState = "FINALIZING"
	AttemptStateScored     AttemptState = "SCORED"
)

// MockAttempt is one candidate's pass through the four-skill exam.
type MockAttempt struct {
	ID          uuid.UUID      `json:"id"`
	ExamID      uuid.UUID      `json:"exam_id"`
	CandidateID int            `json:"candidate_id"`
	State       AttemptState   `json:"state"`
	Submitted   map[Skill]bool `json:"submitted"`
	Result      *AttemptResult `json:"result,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinalizedAt *time.Time     `json:"finalized_at,omitempty"`
}

// SubmittedCount returns how many skills have been submitted.
func (a *MockAttempt) SubmittedCount() int {
	n := 0
	for _, done := range a.Submitted {
		if done {
			n++
		}
	}
	return n
}

// SkillSubmission records one submitted skill. AttemptID is nil for
// standalone practice sessions outside a mock attempt.
type SkillSubmission struct {
	ID          uuid.UUID    `json:"id"`
	AttemptID   *uuid.UUID   `json:"attempt_id,omitempty"`
	Skill       Skill        `json:"skill"`
	TestID      uuid.UUID    `json:"test_id"`
	Result      *SkillResult `json:"result,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// CreateAttemptRequest is the payload for opening a new mock attempt.
type CreateAttemptRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// StartSkillRequest is the payload for starting one skill of an attempt.
type StartSkillRequest struct {
	Skill string `json:"skill" binding:"required"`
}
