// Package scoring converts raw answers and rubric bands into percentages,
// bands, and CEFR levels. Everything here is a pure function.
package scoring

import (
	"math"
	"strings"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

// percentageBands is the percentage → CEFR cascade, evaluated top-down.
// The first satisfied threshold wins, so a tie at an exact boundary
// resolves to the higher level.
var percentageBands = []struct {
	min   int
	level model.CEFRLevel
}{
	{85, model.CEFRC1},
	{70, model.CEFRB2},
	{50, model.CEFRB1},
}

// writingBands is the writing band → CEFR cascade, same evaluation order.
var writingBands = []struct {
	min   float64
	level model.CEFRLevel
}{
	{7.5, model.CEFRC1},
	{6.0, model.CEFRB2},
	{5.0, model.CEFRB1},
	{4.0, model.CEFRA2},
}

// LevelForPercentage maps an objective-score percentage to a CEFR level.
func LevelForPercentage(percentage int) model.CEFRLevel {
	for _, b := range percentageBands {
		if percentage >= b.min {
			return b.level
		}
	}
	return model.CEFRA2
}

// LevelForBand maps a writing band (0–9 scale) to a CEFR level.
func LevelForBand(band float64) model.CEFRLevel {
	for _, b := range writingBands {
		if band >= b.min {
			return b.level
		}
	}
	return model.CEFRA1
}

// Normalize prepares an answer for comparison: trimmed, lowercased.
func Normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// ScoreObjective grades a ledger snapshot against an answer key.
// Comparison is case-insensitive and whitespace-trimmed on both sides.
// An empty key yields a zero result rather than a division by zero.
func ScoreObjective(answers map[string]string, key map[string]string) model.SkillResult {
	correct := 0
	total := len(key)
	for qid, want := range key {
		got, ok := answers[qid]
		if !ok {
			continue
		}
		if Normalize(got) == Normalize(want) {
			correct++
		}
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return model.SkillResult{
		Correct:    correct,
		Total:      total,
		Percentage: percentage,
		Level:      LevelForPercentage(percentage),
	}
}

// CountWords counts whitespace-separated tokens, discarding empty ones.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// OverallBand averages per-task bands and rounds to one decimal.
// An empty batch scores zero.
func OverallBand(bands []float64) float64 {
	if len(bands) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bands {
		sum += b
	}
	return math.Round(sum/float64(len(bands))*10) / 10
}

// AggregateAttempt combines the submitted skills' results into the final
// mock attempt result: the rounded mean percentage mapped through the same
// cascade table.
func AggregateAttempt(scores map[model.Skill]model.SkillResult) model.AttemptResult {
	if len(scores) == 0 {
		return model.AttemptResult{
			SkillScores:  map[model.Skill]model.SkillResult{},
			OverallLevel: model.CEFRA2,
		}
	}
	sum := 0
	for _, res := range scores {
		sum += res.Percentage
	}
	avg := int(math.Round(float64(sum) / float64(len(scores))))
	return model.AttemptResult{
		SkillScores:       scores,
		AveragePercentage: avg,
		OverallLevel:      LevelForPercentage(avg),
	}
}
