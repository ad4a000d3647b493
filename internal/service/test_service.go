package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/config"
	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/repository"
)

// TestService serves skill tests and mock exam definitions. Candidate-safe
// payloads and answer keys are cached in Redis; PostgreSQL is the source of
// truth and the fallback on cache misses.
type TestService struct {
	testRepo *repository.TestRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

func NewTestService(testRepo *repository.TestRepository, rdb *redis.Client, log zerolog.Logger) *TestService {
	return &TestService{
		testRepo: testRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "test_service").Logger(),
	}
}

// GetTest loads the full test, answer key included. The payload and answer
// key caches are the hot path; PostgreSQL is the fallback on a miss, and a
// miss self-heals the cache. Only the engine and the scorer may see the full
// test; candidates get its CandidatePayload.
func (s *TestService) GetTest(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.TestPayloadKey(id.String())).Bytes()
	if err == nil {
		key, keyErr := s.rdb.HGetAll(ctx, config.CacheKey.TestAnswerKeyKey(id.String())).Result()
		if keyErr == nil {
			if test, ok := testFromCache(data, key); ok {
				return test, nil
			}
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("test_id", id.String()).Msg("Test cache read failed, falling back to database")
	}

	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	if warmErr := s.WarmTestCache(ctx, test); warmErr != nil {
		s.log.Warn().Err(warmErr).Str("test_id", id.String()).Msg("Failed to self-heal test cache")
	}
	return test, nil
}

// testFromCache rebuilds the full test from the cached candidate payload and
// answer key hash. ok is false when the pair cannot score: an objective test
// whose key hash was evicted must come from the database instead.
func testFromCache(payloadJSON []byte, key map[string]string) (*model.Test, bool) {
	var payload model.TestPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, false
	}
	if len(key) == 0 && payload.Skill != model.SkillWriting && payload.Skill != model.SkillSpeaking {
		return nil, false
	}
	return payload.WithAnswerKey(key), true
}

// ListMockExams returns one page of the mock exam catalog plus the total
// count. Page numbers start at 1.
func (s *TestService) ListMockExams(ctx context.Context, page, perPage int) ([]model.MockExam, int, error) {
	exams, total, err := s.testRepo.ListMockExams(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list mock exams: %w", err)
	}
	return exams, total, nil
}

// GetMockExam returns the mock exam definition with its four test IDs.
func (s *TestService) GetMockExam(ctx context.Context, id uuid.UUID) (*model.MockExam, error) {
	exam, err := s.testRepo.GetMockExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mock exam: %w", err)
	}
	return exam, nil
}

// WarmTestCache loads a test's candidate payload and answer key from
// PostgreSQL into Redis.
func (s *TestService) WarmTestCache(ctx context.Context, test *model.Test) error {
	if test.QuestionCount() == 0 && test.Skill != model.SkillWriting && test.Skill != model.SkillSpeaking {
		return ErrTestNotAvailable
	}

	payloadJSON, err := json.Marshal(test.CandidatePayload())
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	answerKey := test.AnswerKey()
	keyFields := make(map[string]interface{}, len(answerKey))
	for qid, answer := range answerKey {
		keyFields[qid] = answer
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.TestPayloadKey(test.ID.String()), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.TestAnswerKeyKey(test.ID.String()))
	if len(keyFields) > 0 {
		pipe.HSet(ctx, config.CacheKey.TestAnswerKeyKey(test.ID.String()), keyFields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("test_id", test.ID.String()).
		Int("questions", test.QuestionCount()).
		Msg("Test cache warmed")
	return nil
}

// PrewarmAllCaches loads every test into Redis on startup so session starts
// never race over a cold cache.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	tests, err := s.testRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list tests: %w", err)
	}
	if len(tests) == 0 {
		s.log.Info().Msg("No tests to prewarm")
		return nil
	}

	warmed := 0
	for i := range tests {
		full, err := s.testRepo.GetByID(ctx, tests[i].ID)
		if err != nil {
			s.log.Warn().Err(err).Str("test_id", tests[i].ID.String()).Msg("Failed to load test, skipping")
			continue
		}
		if err := s.WarmTestCache(ctx, full); err != nil {
			s.log.Warn().Err(err).Str("test_id", full.ID.String()).Msg("Failed to warm test, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(tests)).Msg("Prewarming complete")
	return nil
}
