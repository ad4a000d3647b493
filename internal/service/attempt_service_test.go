package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

type fakeAttemptStore struct {
	attempt *model.MockAttempt
	raw     map[string]any

	rawStatusCalls int
	setStateCalls  int
	finalizeCalls  int

	setStateErr error
	finalizeErr error
}

func (f *fakeAttemptStore) Create(_ context.Context, a *model.MockAttempt) error {
	a.ID = uuid.New()
	f.attempt = a
	return nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.MockAttempt, error) {
	if f.attempt == nil || f.attempt.ID != id {
		return nil, errors.New("attempt not found")
	}
	cp := *f.attempt
	return &cp, nil
}

func (f *fakeAttemptStore) RawStatus(_ context.Context, _ uuid.UUID) (map[string]any, error) {
	f.rawStatusCalls++
	if f.raw == nil {
		return map[string]any{}, nil
	}
	return f.raw, nil
}

func (f *fakeAttemptStore) SetState(_ context.Context, _ uuid.UUID, from, to model.AttemptState) error {
	f.setStateCalls++
	if f.setStateErr != nil {
		return f.setStateErr
	}
	if f.attempt.State != from {
		return errors.New("state mismatch")
	}
	f.attempt.State = to
	return nil
}

func (f *fakeAttemptStore) Finalize(_ context.Context, _ uuid.UUID, result *model.AttemptResult) error {
	f.finalizeCalls++
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.attempt.State = model.AttemptStateScored
	f.attempt.Result = result
	return nil
}

type fakeSubmissionStore struct {
	subs []model.SkillSubmission
}

func (f *fakeSubmissionStore) ListByAttempt(_ context.Context, _ uuid.UUID) ([]model.SkillSubmission, error) {
	return f.subs, nil
}

type fakeExamSource struct {
	exam *model.MockExam
}

func (f *fakeExamSource) GetMockExam(_ context.Context, id uuid.UUID) (*model.MockExam, error) {
	if f.exam == nil || f.exam.ID != id {
		return nil, errors.New("exam not found")
	}
	return f.exam, nil
}

func newFixture() (*AttemptService, *fakeAttemptStore, *fakeSubmissionStore, *fakeExamSource, *model.MockAttempt) {
	exam := &model.MockExam{
		ID:              uuid.New(),
		ListeningTestID: uuid.New(),
		ReadingTestID:   uuid.New(),
		WritingTestID:   uuid.New(),
		SpeakingTestID:  uuid.New(),
	}
	attempts := &fakeAttemptStore{}
	subs := &fakeSubmissionStore{}
	exams := &fakeExamSource{exam: exam}
	svc := NewAttemptService(attempts, subs, exams, zerolog.Nop())

	attempt, _ := svc.Create(context.Background(), 7, exam.ID)
	return svc, attempts, subs, exams, attempt
}

func TestAttemptCreateStartsAssembling(t *testing.T) {
	_, _, _, _, attempt := newFixture()
	assert.Equal(t, model.AttemptStateAssembling, attempt.State)
	assert.Equal(t, 7, attempt.CandidateID)
}

func TestAttemptGetNormalizesStatusAndIsIdempotent(t *testing.T) {
	svc, attempts, _, _, attempt := newFixture()
	attempts.raw = map[string]any{
		"listening": 1.698e9,
		"Reading":   "true",
		"vocab":     true,
	}

	got, err := svc.Get(context.Background(), 7, attempt.ID)
	require.NoError(t, err)
	assert.True(t, got.Submitted[model.SkillListening])
	assert.True(t, got.Submitted[model.SkillReading])
	assert.False(t, got.Submitted[model.SkillWriting])
	assert.Equal(t, model.AttemptStateReady, got.State)

	// Refreshing again changes nothing.
	again, err := svc.Get(context.Background(), 7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Submitted, again.Submitted)
	assert.Equal(t, model.AttemptStateReady, again.State)
}

func TestAttemptGetRejectsOtherCandidates(t *testing.T) {
	svc, _, _, _, attempt := newFixture()
	_, err := svc.Get(context.Background(), 99, attempt.ID)
	assert.ErrorIs(t, err, ErrNotSessionOwner)
}

func TestStartSkillGuards(t *testing.T) {
	svc, attempts, _, exams, attempt := newFixture()

	t.Run("unknown skill", func(t *testing.T) {
		_, _, err := svc.StartSkill(context.Background(), 7, attempt.ID, "grammar")
		assert.ErrorIs(t, err, ErrUnknownSkill)
	})

	t.Run("resolves the constituent test", func(t *testing.T) {
		_, testID, err := svc.StartSkill(context.Background(), 7, attempt.ID, "reading")
		require.NoError(t, err)
		assert.Equal(t, exams.exam.ReadingTestID, testID)
	})

	t.Run("already submitted", func(t *testing.T) {
		attempts.raw = map[string]any{"READING": true}
		_, _, err := svc.StartSkill(context.Background(), 7, attempt.ID, "Reading")
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	})
}

func TestFinalizeRejectedLocallyWithZeroSubmissions(t *testing.T) {
	svc, attempts, _, _, attempt := newFixture()

	_, err := svc.Finalize(context.Background(), 7, attempt.ID)
	assert.ErrorIs(t, err, ErrFinalizeNotReady)

	// The gate fires before any state transition or result write.
	assert.Equal(t, 1, attempts.rawStatusCalls)
	assert.Equal(t, 0, attempts.setStateCalls)
	assert.Equal(t, 0, attempts.finalizeCalls)
}

func TestFinalizeRefreshesStaleAssemblingState(t *testing.T) {
	svc, attempts, subs, _, attempt := newFixture()
	// The submission landed after the attempt was last loaded, so the store
	// still says ASSEMBLING.
	attempts.raw = map[string]any{"READING": 1.698e9}
	subs.subs = []model.SkillSubmission{
		{Skill: model.SkillReading, Result: &model.SkillResult{Correct: 8, Total: 10, Percentage: 80, Level: model.CEFRB2}},
	}

	got, err := svc.Finalize(context.Background(), 7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStateScored, got.State)
	require.NotNil(t, got.Result)
	assert.Equal(t, 80, got.Result.AveragePercentage)

	// ASSEMBLING → READY, then READY → FINALIZING.
	assert.Equal(t, 2, attempts.setStateCalls)
}

func TestFinalizeAggregatesSubmittedSkills(t *testing.T) {
	svc, attempts, subs, _, attempt := newFixture()
	attempts.attempt.State = model.AttemptStateReady
	subs.subs = []model.SkillSubmission{
		{Skill: model.SkillListening, Result: &model.SkillResult{Correct: 9, Total: 10, Percentage: 90, Level: model.CEFRC1}},
		{Skill: model.SkillReading, Result: &model.SkillResult{Correct: 6, Total: 10, Percentage: 60, Level: model.CEFRB1}},
	}

	got, err := svc.Finalize(context.Background(), 7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStateScored, got.State)
	require.NotNil(t, got.Result)
	assert.Equal(t, 75, got.Result.AveragePercentage)
	assert.Equal(t, model.CEFRB2, got.Result.OverallLevel)
	assert.Len(t, got.Result.SkillScores, 2)
}

func TestFinalizeFailureReturnsAttemptToReady(t *testing.T) {
	svc, attempts, subs, _, attempt := newFixture()
	attempts.attempt.State = model.AttemptStateReady
	subs.subs = []model.SkillSubmission{
		{Skill: model.SkillListening, Result: &model.SkillResult{Percentage: 80, Level: model.CEFRB2}},
	}
	attempts.finalizeErr = errors.New("results store down")

	_, err := svc.Finalize(context.Background(), 7, attempt.ID)
	assert.ErrorIs(t, err, ErrFinalizeFailed)

	// READY → FINALIZING, then the revert FINALIZING → READY.
	assert.Equal(t, model.AttemptStateReady, attempts.attempt.State)
	assert.Equal(t, 2, attempts.setStateCalls)
}

func TestFinalizeScoredAttemptIsRejected(t *testing.T) {
	svc, attempts, _, _, attempt := newFixture()
	attempts.attempt.State = model.AttemptStateScored

	_, err := svc.Finalize(context.Background(), 7, attempt.ID)
	assert.ErrorIs(t, err, ErrAttemptScored)
}

func TestFinalizeWritingOnlyAttemptSucceeds(t *testing.T) {
	svc, attempts, subs, _, attempt := newFixture()
	attempts.attempt.State = model.AttemptStateReady
	// Writing and Speaking submissions never carry an objective result.
	subs.subs = []model.SkillSubmission{
		{Skill: model.SkillWriting, Result: nil},
	}

	got, err := svc.Finalize(context.Background(), 7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStateScored, got.State)
	require.NotNil(t, got.Result)
	assert.Empty(t, got.Result.SkillScores)
	assert.Equal(t, 0, got.Result.AveragePercentage)
	assert.Equal(t, model.CEFRA2, got.Result.OverallLevel)
}

func TestFinalizeWithUnpersistedSubmissionsRevertsToReady(t *testing.T) {
	svc, attempts, _, _, attempt := newFixture()
	// READY was set on an earlier refresh but the result worker has not
	// written the submission rows yet.
	attempts.attempt.State = model.AttemptStateReady

	_, err := svc.Finalize(context.Background(), 7, attempt.ID)
	assert.ErrorIs(t, err, ErrFinalizeNotReady)
	assert.Equal(t, model.AttemptStateReady, attempts.attempt.State)
}
