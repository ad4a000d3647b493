package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

// AttemptRepository handles mock attempt data access. It plays the role of
// the results store for attempt state; skill submissions live in
// SubmissionRepository.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new mock attempt in the ASSEMBLING state.
func (r *AttemptRepository) Create(ctx context.Context, a *model.MockAttempt) error {
	a.State = model.AttemptStateAssembling
	return r.pool.QueryRow(ctx,
		`INSERT INTO mock_attempts (exam_id, candidate_id, state)
		 VALUES ($1, $2, $3)
		 RETURNING id, started_at`,
		a.ExamID, a.CandidateID, a.State,
	).Scan(&a.ID, &a.StartedAt)
}

// GetByID retrieves an attempt without its status mapping (see RawStatus).
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MockAttempt, error) {
	a := &model.MockAttempt{}
	var resultJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, candidate_id, state, result, started_at, finalized_at
		 FROM mock_attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.ExamID, &a.CandidateID, &a.State, &resultJSON, &a.StartedAt, &a.FinalizedAt)
	if err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		var res model.AttemptResult
		if err := json.Unmarshal(resultJSON, &res); err != nil {
			return nil, fmt.Errorf("unmarshal attempt result: %w", err)
		}
		a.Result = &res
	}
	return a, nil
}

// RawStatus returns the per-skill submission timestamps as a loosely-typed
// mapping, exactly as the results store exposes it. Callers normalize it
// into the closed skill enumeration.
func (r *AttemptRepository) RawStatus(ctx context.Context, attemptID uuid.UUID) (map[string]any, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT skill, EXTRACT(EPOCH FROM submitted_at)
		 FROM skill_submissions WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	raw := make(map[string]any)
	for rows.Next() {
		var skill string
		var ts float64
		if err := rows.Scan(&skill, &ts); err != nil {
			return nil, err
		}
		raw[skill] = ts
	}
	return raw, rows.Err()
}

// SetState transitions the attempt state, guarded by the expected current
// state so concurrent transitions cannot clobber each other.
func (r *AttemptRepository) SetState(ctx context.Context, id uuid.UUID, from, to model.AttemptState) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mock_attempts SET state = $1 WHERE id = $2 AND state = $3`,
		to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attempt %s is not in state %s", id, from)
	}
	return nil
}

// Finalize stores the aggregate result and marks the attempt SCORED.
// Only a FINALIZING attempt may be scored.
func (r *AttemptRepository) Finalize(ctx context.Context, id uuid.UUID, result *model.AttemptResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	now := time.Now()
	tag, err := r.pool.Exec(ctx,
		`UPDATE mock_attempts
		 SET state = $1, result = $2, finalized_at = $3
		 WHERE id = $4 AND state = $5`,
		model.AttemptStateScored, resultJSON, now, id, model.AttemptStateFinalizing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attempt %s is not finalizing", id)
	}
	return nil
}
