package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

// TestRepository handles skill test content data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetByID retrieves a test with its parts and questions, ordered.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, skill, duration_minutes, created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Skill, &t.DurationMinutes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parts, err := r.listParts(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Parts = parts
	return t, nil
}

// List retrieves all tests without their parts (used for cache prewarm).
func (r *TestRepository) List(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, skill, duration_minutes, created_at, updated_at
		 FROM tests ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Skill, &t.DurationMinutes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// ListMockExams retrieves one page of the mock exam catalog, newest first,
// plus the total count.
func (r *TestRepository) ListMockExams(ctx context.Context, limit, offset int) ([]model.MockExam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mock_exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, listening_test_id, reading_test_id, writing_test_id, speaking_test_id, created_at
		 FROM mock_exams ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.MockExam
	for rows.Next() {
		var m model.MockExam
		if err := rows.Scan(&m.ID, &m.Title, &m.ListeningTestID, &m.ReadingTestID, &m.WritingTestID, &m.SpeakingTestID, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, m)
	}
	return exams, total, rows.Err()
}

// GetMockExam retrieves a mock exam's four constituent test references.
func (r *TestRepository) GetMockExam(ctx context.Context, id uuid.UUID) (*model.MockExam, error) {
	m := &model.MockExam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, listening_test_id, reading_test_id, writing_test_id, speaking_test_id, created_at
		 FROM mock_exams WHERE id = $1`, id,
	).Scan(&m.ID, &m.Title, &m.ListeningTestID, &m.ReadingTestID, &m.WritingTestID, &m.SpeakingTestID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *TestRepository) listParts(ctx context.Context, testID uuid.UUID) ([]model.Part, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, instruction, COALESCE(audio_url, ''), order_num
		 FROM parts WHERE test_id = $1
		 ORDER BY order_num`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []model.Part
	for rows.Next() {
		var p model.Part
		if err := rows.Scan(&p.ID, &p.TestID, &p.Instruction, &p.AudioURL, &p.OrderNum); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range parts {
		questions, err := r.listQuestions(ctx, parts[i].ID)
		if err != nil {
			return nil, err
		}
		parts[i].Questions = questions
	}
	return parts, nil
}

func (r *TestRepository) listQuestions(ctx context.Context, partID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, part_id, question_text, question_type, options, correct_answer, word_limit, order_num
		 FROM questions WHERE part_id = $1
		 ORDER BY order_num`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PartID, &q.QuestionText, &q.QuestionType, &q.Options, &q.CorrectAnswer, &q.WordLimit, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
