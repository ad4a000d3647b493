package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/config"
	"github.com/fluentprep/fluentprep-backend/internal/engine"
	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/repository"
)

// SessionService opens and tracks in-memory skill sessions. Answers are
// autosaved to a Redis hash and queued for asynchronous persistence; on
// completion the session's result is queued the same way. The service is the
// engine's ResultSink.
type SessionService struct {
	manager     *engine.Manager
	tests       *TestService
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	timings     engine.Timings
	log         zerolog.Logger
}

func NewSessionService(
	manager *engine.Manager,
	tests *TestService,
	attemptRepo *repository.AttemptRepository,
	rdb *redis.Client,
	timings engine.Timings,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		manager:     manager,
		tests:       tests,
		attemptRepo: attemptRepo,
		rdb:         rdb,
		timings:     timings,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Start opens a session for one skill test. If the candidate already has a
// live session for the same test the existing one is returned, so a refresh
// or second device never forks the countdown. Attempt-bound starts are
// rejected when the skill was already submitted.
func (s *SessionService) Start(ctx context.Context, candidateID int, req model.StartSessionRequest) (*engine.SkillSession, *model.TestPayload, error) {
	test, err := s.tests.GetTest(ctx, req.TestID)
	if err != nil {
		return nil, nil, ErrTestNotAvailable
	}

	if req.AttemptID != nil {
		raw, err := s.attemptRepo.RawStatus(ctx, *req.AttemptID)
		if err != nil {
			return nil, nil, fmt.Errorf("get attempt status: %w", err)
		}
		if model.NormalizeStatus(raw)[test.Skill] {
			return nil, nil, ErrAlreadySubmitted
		}
	}

	// Idempotent rejoin: reuse the live session if one exists.
	activeKey := config.CacheKey.CandidateActiveSessionKey(candidateID, req.TestID.String())
	if val, err := s.rdb.Get(ctx, activeKey).Result(); err == nil {
		if existingID, parseErr := uuid.Parse(val); parseErr == nil {
			if existing, getErr := s.manager.Get(existingID); getErr == nil {
				if existing.State().Phase != engine.PhaseFinished {
					return existing, test.CandidatePayload(), nil
				}
			}
		}
	}

	sc := engine.SessionContext{
		SessionID:   uuid.New(),
		TestID:      test.ID,
		Skill:       test.Skill,
		CandidateID: candidateID,
		AttemptID:   req.AttemptID,
		ExamID:      req.ExamID,
	}

	sess, err := engine.NewSkillSession(sc, test, s.timings, s, s.log)
	if err != nil {
		return nil, nil, fmt.Errorf("build session: %w", err)
	}

	s.manager.Add(sess)
	if err := sess.Start(); err != nil {
		s.manager.Remove(sc.SessionID)
		return nil, nil, fmt.Errorf("start session: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionStartKey(sc.SessionID.String()), time.Now().Unix(), 0)
	pipe.Set(ctx, activeKey, sc.SessionID.String(), time.Duration(test.DurationMinutes+30)*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sc.SessionID.String()).Msg("Failed to cache session start")
	}

	s.log.Info().
		Str("session_id", sc.SessionID.String()).
		Str("test_id", test.ID.String()).
		Str("skill", string(test.Skill)).
		Int("candidate_id", candidateID).
		Msg("Session started")

	return sess, test.CandidatePayload(), nil
}

// Get returns a live session, verifying the caller owns it.
func (s *SessionService) Get(ctx context.Context, candidateID int, sessionID uuid.UUID) (*engine.SkillSession, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Context().CandidateID != candidateID {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

type answerJob struct {
	SessionID   string `json:"session_id"`
	TestID      string `json:"test_id"`
	CandidateID int    `json:"candidate_id"`
	QID         string `json:"q_id"`
	Answer      string `json:"answer"`
}

// Autosave records an answer in the session ledger, mirrors it to the Redis
// autosave hash, and queues it for persistence. The in-memory ledger is
// authoritative for scoring; the hash only serves state recovery.
func (s *SessionService) Autosave(ctx context.Context, sess *engine.SkillSession, questionID, answer string) error {
	if err := sess.SetAnswer(questionID, answer); err != nil {
		return err
	}

	sc := sess.Context()
	job, err := json.Marshal(answerJob{
		SessionID:   sc.SessionID.String(),
		TestID:      sc.TestID.String(),
		CandidateID: sc.CandidateID,
		QID:         questionID,
		Answer:      answer,
	})
	if err != nil {
		return fmt.Errorf("marshal answer job: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.SessionAnswersKey(sc.SessionID.String()), questionID, answer)
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, job)
	if _, err := pipe.Exec(ctx); err != nil {
		// The ledger already holds the answer; recovery just loses it.
		s.log.Warn().Err(err).Str("session_id", sc.SessionID.String()).Msg("Failed to mirror answer to redis")
	}
	return nil
}

// GetState builds the recovery snapshot for a session: live engine state plus
// the autosaved answers hash.
func (s *SessionService) GetState(ctx context.Context, sess *engine.SkillSession) (*model.SessionStateView, error) {
	sc := sess.Context()
	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(sc.SessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get autosaved answers: %w", err)
	}
	// Overlay the ledger: it may be ahead of the hash if a mirror write failed.
	for qid, answer := range sess.Ledger().Snapshot() {
		answers[qid] = answer
	}

	st := sess.State()
	return &model.SessionStateView{
		SessionID:        sc.SessionID,
		TestID:           sc.TestID,
		Skill:            sc.Skill,
		Phase:            string(st.Phase),
		PartIndex:        st.PartIndex,
		Remaining:        st.Remaining,
		AudioActive:      st.AudioActive,
		AudioPercent:     st.AudioPercent,
		AnsweredCount:    st.AnsweredCount,
		AutosavedAnswers: answers,
		Result:           st.Result,
	}, nil
}

// Teardown removes a finished or abandoned session and its Redis keys.
func (s *SessionService) Teardown(ctx context.Context, sess *engine.SkillSession) {
	sc := sess.Context()
	s.manager.Remove(sc.SessionID)

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.SessionAnswersKey(sc.SessionID.String()))
	pipe.Del(ctx, config.CacheKey.SessionStartKey(sc.SessionID.String()))
	pipe.Del(ctx, config.CacheKey.CandidateActiveSessionKey(sc.CandidateID, sc.TestID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sc.SessionID.String()).Msg("Failed to clear session keys")
	}
}

type resultJob struct {
	SessionID   string             `json:"session_id"`
	TestID      string             `json:"test_id"`
	Skill       string             `json:"skill"`
	CandidateID int                `json:"candidate_id"`
	AttemptID   *string            `json:"attempt_id,omitempty"`
	ExamID      *string            `json:"exam_id,omitempty"`
	Result      *model.SkillResult `json:"result,omitempty"`
	Answers     map[string]string  `json:"answers"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// SubmitSkillResult is the engine's result sink. It is invoked exactly once
// per session, after the finished transition; the submission is queued for
// the result worker rather than written synchronously.
func (s *SessionService) SubmitSkillResult(ctx context.Context, sc engine.SessionContext, result *model.SkillResult, answers map[string]string) error {
	job := resultJob{
		SessionID:   sc.SessionID.String(),
		TestID:      sc.TestID.String(),
		Skill:       string(sc.Skill),
		CandidateID: sc.CandidateID,
		Result:      result,
		Answers:     answers,
		SubmittedAt: time.Now(),
	}
	if sc.AttemptID != nil {
		id := sc.AttemptID.String()
		job.AttemptID = &id
	}
	if sc.ExamID != nil {
		id := sc.ExamID.String()
		job.ExamID = &id
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal result job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}

	// The session is done; the candidate may open the next skill immediately.
	if err := s.rdb.Del(ctx, config.CacheKey.CandidateActiveSessionKey(sc.CandidateID, sc.TestID.String())).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Failed to clear active session key")
	}

	s.log.Info().
		Str("session_id", sc.SessionID.String()).
		Str("skill", string(sc.Skill)).
		Int("answers", len(answers)).
		Msg("Skill result queued")
	return nil
}
