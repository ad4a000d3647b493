package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/scoring"
)

// taskEvaluator is the oracle surface the service depends on.
type taskEvaluator interface {
	EvaluateTask(ctx context.Context, task model.WritingTask) (model.RubricResult, error)
}

// WritingService evaluates writing task batches against the rubric oracle.
// The batch is all-or-nothing: if the oracle is unreachable for any task the
// whole evaluation fails with a zeroed result, never a half-scored one.
type WritingService struct {
	oracle taskEvaluator
	log    zerolog.Logger
}

func NewWritingService(oracle taskEvaluator, log zerolog.Logger) *WritingService {
	return &WritingService{
		oracle: oracle,
		log:    log.With().Str("component", "writing_service").Logger(),
	}
}

// Evaluate scores each task, derives per-task and overall CEFR levels, and
// computes the overall band as the mean rounded to one decimal.
func (s *WritingService) Evaluate(ctx context.Context, tasks []model.WritingTask) (*model.WritingEvaluation, error) {
	results := make([]model.RubricResult, 0, len(tasks))
	bands := make([]float64, 0, len(tasks))

	for i, task := range tasks {
		res, err := s.oracle.EvaluateTask(ctx, task)
		if err != nil {
			s.log.Error().Err(err).Int("task", i).Msg("Oracle unavailable, failing batch")
			return &model.WritingEvaluation{Tasks: []model.RubricResult{}}, fmt.Errorf("evaluate task %d: %w", i, err)
		}

		res.WordCount = scoring.CountWords(task.Answer)
		res.Level = scoring.LevelForBand(res.Band)
		results = append(results, res)
		bands = append(bands, res.Band)
	}

	overall := scoring.OverallBand(bands)
	eval := &model.WritingEvaluation{
		OverallBand:  overall,
		OverallLevel: scoring.LevelForBand(overall),
		Tasks:        results,
	}

	s.log.Info().
		Int("tasks", len(tasks)).
		Float64("overall_band", overall).
		Str("overall_level", string(eval.OverallLevel)).
		Msg("Writing batch evaluated")
	return eval, nil
}
