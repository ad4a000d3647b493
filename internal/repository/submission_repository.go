package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

// SubmissionRepository handles skill submission records: one row per
// submitted skill, attempt-bound or standalone practice.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts a skill submission. For attempt-bound submissions the
// (attempt_id, skill) pair is unique: a skill, once submitted, is
// immutable, so a duplicate insert returns pgx.ErrNoRows and the caller
// keeps the original row.
func (r *SubmissionRepository) Create(ctx context.Context, sub *model.SkillSubmission, candidateID int) error {
	var resultJSON []byte
	if sub.Result != nil {
		var err error
		resultJSON, err = json.Marshal(sub.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO skill_submissions (attempt_id, skill, test_id, candidate_id, result)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (attempt_id, skill) WHERE attempt_id IS NOT NULL DO NOTHING
		 RETURNING id, submitted_at`,
		sub.AttemptID, sub.Skill, sub.TestID, candidateID, resultJSON,
	).Scan(&sub.ID, &sub.SubmittedAt)
}

// ListByAttempt retrieves all submissions for an attempt.
func (r *SubmissionRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.SkillSubmission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, skill, test_id, result, submitted_at
		 FROM skill_submissions WHERE attempt_id = $1
		 ORDER BY submitted_at`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.SkillSubmission
	for rows.Next() {
		var sub model.SkillSubmission
		var resultJSON []byte
		if err := rows.Scan(&sub.ID, &sub.AttemptID, &sub.Skill, &sub.TestID, &resultJSON, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		if len(resultJSON) > 0 {
			var res model.SkillResult
			if err := json.Unmarshal(resultJSON, &res); err != nil {
				return nil, fmt.Errorf("unmarshal submission result: %w", err)
			}
			sub.Result = &res
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
