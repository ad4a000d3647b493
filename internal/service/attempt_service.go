package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/scoring"
)

// attemptStore is the slice of AttemptRepository the orchestrator needs.
type attemptStore interface {
	Create(ctx context.Context, a *model.MockAttempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.MockAttempt, error)
	RawStatus(ctx context.Context, attemptID uuid.UUID) (map[string]any, error)
	SetState(ctx context.Context, id uuid.UUID, from, to model.AttemptState) error
	Finalize(ctx context.Context, id uuid.UUID, result *model.AttemptResult) error
}

type submissionStore interface {
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.SkillSubmission, error)
}

type examSource interface {
	GetMockExam(ctx context.Context, id uuid.UUID) (*model.MockExam, error)
}

// AttemptService orchestrates mock exam attempts: one attempt per candidate
// per run through the four skill tests, finalized into an aggregate result
// once at least one skill has been submitted.
type AttemptService struct {
	attempts    attemptStore
	submissions submissionStore
	exams       examSource
	log         zerolog.Logger
}

func NewAttemptService(attempts attemptStore, submissions submissionStore, exams examSource, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		attempts:    attempts,
		submissions: submissions,
		exams:       exams,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Create opens a new attempt against a mock exam.
func (s *AttemptService) Create(ctx context.Context, candidateID int, examID uuid.UUID) (*model.MockAttempt, error) {
	if _, err := s.exams.GetMockExam(ctx, examID); err != nil {
		return nil, fmt.Errorf("get mock exam: %w", err)
	}

	attempt := &model.MockAttempt{
		ExamID:      examID,
		CandidateID: candidateID,
		State:       model.AttemptStateAssembling,
		Submitted:   make(map[model.Skill]bool, 4),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Int("candidate_id", candidateID).
		Msg("Attempt created")
	return attempt, nil
}

// Get loads an attempt with its submission status refreshed from the store.
// The raw status payload is normalized at this boundary; refreshing is
// idempotent and an attempt with at least one submission is promoted from
// ASSEMBLING to READY.
func (s *AttemptService) Get(ctx context.Context, candidateID int, attemptID uuid.UUID) (*model.MockAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.CandidateID != candidateID {
		return nil, ErrNotSessionOwner
	}

	raw, err := s.attempts.RawStatus(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt status: %w", err)
	}
	attempt.Submitted = model.NormalizeStatus(raw)

	if attempt.State == model.AttemptStateAssembling && attempt.SubmittedCount() > 0 {
		if err := s.attempts.SetState(ctx, attemptID, model.AttemptStateAssembling, model.AttemptStateReady); err == nil {
			attempt.State = model.AttemptStateReady
		}
	}
	return attempt, nil
}

// StartSkill resolves the constituent test for one skill of the attempt's
// exam, rejecting skills that were already submitted.
func (s *AttemptService) StartSkill(ctx context.Context, candidateID int, attemptID uuid.UUID, skillName string) (*model.MockAttempt, uuid.UUID, error) {
	skill, err := model.ParseSkill(skillName)
	if err != nil {
		return nil, uuid.Nil, ErrUnknownSkill
	}

	attempt, err := s.Get(ctx, candidateID, attemptID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if attempt.State == model.AttemptStateScored {
		return nil, uuid.Nil, ErrAttemptScored
	}
	if attempt.Submitted[skill] {
		return nil, uuid.Nil, ErrAlreadySubmitted
	}

	exam, err := s.exams.GetMockExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("get mock exam: %w", err)
	}
	return attempt, exam.TestIDFor(skill), nil
}

// Finalize aggregates the attempt's submitted skills into an overall CEFR
// level. The gate counts submissions, not objective scores, so an attempt
// whose only submitted skills are Writing or Speaking still finalizes (to
// the aggregate floor). An attempt with no submissions at all is rejected
// before any state transition. Failure partway returns the attempt to READY
// so finalize can be retried.
func (s *AttemptService) Finalize(ctx context.Context, candidateID int, attemptID uuid.UUID) (*model.MockAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.CandidateID != candidateID {
		return nil, ErrNotSessionOwner
	}
	if attempt.State == model.AttemptStateScored {
		return nil, ErrAttemptScored
	}

	if attempt.State == model.AttemptStateAssembling {
		// A submission may have landed since the last status refresh.
		raw, err := s.attempts.RawStatus(ctx, attemptID)
		if err != nil {
			return nil, fmt.Errorf("get attempt status: %w", err)
		}
		attempt.Submitted = model.NormalizeStatus(raw)
		if attempt.SubmittedCount() == 0 {
			return nil, ErrFinalizeNotReady
		}
		if err := s.attempts.SetState(ctx, attemptID, model.AttemptStateAssembling, model.AttemptStateReady); err != nil {
			return nil, fmt.Errorf("promote attempt: %w", err)
		}
		attempt.State = model.AttemptStateReady
	}

	if err := s.attempts.SetState(ctx, attemptID, model.AttemptStateReady, model.AttemptStateFinalizing); err != nil {
		return nil, fmt.Errorf("enter finalizing: %w", err)
	}

	result, err := s.buildResult(ctx, attemptID)
	if err != nil {
		s.revertToReady(ctx, attemptID)
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	if err := s.attempts.Finalize(ctx, attemptID, result); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to store attempt result")
		s.revertToReady(ctx, attemptID)
		return nil, ErrFinalizeFailed
	}

	attempt.State = model.AttemptStateScored
	attempt.Result = result

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Str("overall_level", string(result.OverallLevel)).
		Int("skills", len(result.SkillScores)).
		Msg("Attempt finalized")
	return attempt, nil
}

func (s *AttemptService) buildResult(ctx context.Context, attemptID uuid.UUID) (*model.AttemptResult, error) {
	subs, err := s.submissions.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if len(subs) == 0 {
		// Status reported a submission the result worker has not persisted yet.
		return nil, ErrFinalizeNotReady
	}

	scores := make(map[model.Skill]model.SkillResult, len(subs))
	for i := range subs {
		if subs[i].Result != nil {
			scores[subs[i].Skill] = *subs[i].Result
		}
	}
	result := scoring.AggregateAttempt(scores)
	return &result, nil
}

func (s *AttemptService) revertToReady(ctx context.Context, attemptID uuid.UUID) {
	if err := s.attempts.SetState(ctx, attemptID, model.AttemptStateFinalizing, model.AttemptStateReady); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to revert attempt to READY")
	}
}
