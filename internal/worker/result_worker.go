package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/config"
	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/repository"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes persist_results_queue and records one skill
// submission row per completed session, in batches.
type ResultWorker struct {
	pool    *pgxpool.Pool
	subRepo *repository.SubmissionRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewResultWorker(pool *pgxpool.Pool, subRepo *repository.SubmissionRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool:    pool,
		subRepo: subRepo,
		rdb:     rdb,
		log:     log.With().Str("component", "result_worker").Logger(),
	}
}

type resultPayload struct {
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

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*resultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p resultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertSubmissions(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk submission insert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	// After successful inserts the live autosave buffers can go.
	w.bulkClearAutosavedAnswers(ctx, batch)
}

// bulkInsertSubmissions inserts the whole batch in one round trip using
// UNNEST. Attempt IDs and results travel as text so absent values can pass
// through as empty strings and become NULL in SQL.
func (w *ResultWorker) bulkInsertSubmissions(ctx context.Context, batch []*resultPayload) error {
	n := len(batch)

	attemptIDs := make([]string, 0, n)
	skills := make([]string, 0, n)
	testIDs := make([]string, 0, n)
	candidates := make([]int, 0, n)
	results := make([]string, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		attemptID := ""
		if p.AttemptID != nil {
			attemptID = *p.AttemptID
		}
		resultJSON := ""
		if p.Result != nil {
			raw, err := json.Marshal(p.Result)
			if err != nil {
				return err
			}
			resultJSON = string(raw)
		}

		attemptIDs = append(attemptIDs, attemptID)
		skills = append(skills, p.Skill)
		testIDs = append(testIDs, p.TestID)
		candidates = append(candidates, p.CandidateID)
		results = append(results, resultJSON)
		submittedAts = append(submittedAts, p.SubmittedAt)
	}

	query := `
		INSERT INTO skill_submissions (attempt_id, skill, test_id, candidate_id, result, submitted_at)
		SELECT
			NULLIF(u.attempt_id, '')::uuid,
			u.skill,
			u.test_id::uuid,
			u.candidate_id,
			NULLIF(u.result, '')::jsonb,
			u.submitted_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::int[],
			$5::text[],
			$6::timestamptz[]
		) AS u (attempt_id, skill, test_id, candidate_id, result, submitted_at)
		ON CONFLICT (attempt_id, skill) WHERE attempt_id IS NOT NULL DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query, attemptIDs, skills, testIDs, candidates, results, submittedAts)
	return err
}

func (w *ResultWorker) bulkClearAutosavedAnswers(ctx context.Context, batch []*resultPayload) {
	pipe := w.rdb.Pipeline()

	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.SessionAnswersKey(p.SessionID))
		pipe.Del(ctx, config.CacheKey.SessionStartKey(p.SessionID))
	}

	_, _ = pipe.Exec(ctx)
}

// persistSingle falls back to the repository insert, which treats a
// duplicate attempt-bound submission as already recorded.
func (w *ResultWorker) persistSingle(ctx context.Context, p *resultPayload) error {
	testID, err := uuid.Parse(p.TestID)
	if err != nil {
		return err
	}

	sub := model.SkillSubmission{
		Skill:       model.Skill(p.Skill),
		TestID:      testID,
		Result:      p.Result,
		SubmittedAt: p.SubmittedAt,
	}
	if p.AttemptID != nil {
		attemptID, err := uuid.Parse(*p.AttemptID)
		if err != nil {
			return err
		}
		sub.AttemptID = &attemptID
	}

	err = w.subRepo.Create(ctx, &sub, p.CandidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Skill already submitted for this attempt; the first row wins.
		return nil
	}
	return err
}
