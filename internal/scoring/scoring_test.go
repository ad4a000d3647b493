package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

func TestLevelForPercentage(t *testing.T) {
	cases := []struct {
		percentage int
		want       model.CEFRLevel
	}{
		{100, model.CEFRC1},
		{85, model.CEFRC1},
		{84, model.CEFRB2},
		{70, model.CEFRB2},
		{69, model.CEFRB1},
		{50, model.CEFRB1},
		{49, model.CEFRA2},
		{0, model.CEFRA2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForPercentage(tc.percentage), "percentage %d", tc.percentage)
	}
}

func TestLevelForPercentageMonotonic(t *testing.T) {
	rank := map[model.CEFRLevel]int{
		model.CEFRA1: 0, model.CEFRA2: 1, model.CEFRB1: 2, model.CEFRB2: 3, model.CEFRC1: 4,
	}
	prev := LevelForPercentage(0)
	for p := 1; p <= 100; p++ {
		cur := LevelForPercentage(p)
		assert.GreaterOrEqual(t, rank[cur], rank[prev], "level dropped at %d%%", p)
		prev = cur
	}
}

func TestLevelForBand(t *testing.T) {
	cases := []struct {
		band float64
		want model.CEFRLevel
	}{
		{9.0, model.CEFRC1},
		{7.5, model.CEFRC1},
		{7.4, model.CEFRB2},
		{6.0, model.CEFRB2},
		{5.5, model.CEFRB1},
		{5.0, model.CEFRB1},
		{4.5, model.CEFRA2},
		{4.0, model.CEFRA2},
		{3.9, model.CEFRA1},
		{0, model.CEFRA1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForBand(tc.band), "band %.1f", tc.band)
	}
}

func TestScoreObjective(t *testing.T) {
	key := map[string]string{
		"q1": "Paris",
		"q2": "TRUE",
		"q3": "42",
	}

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		res := ScoreObjective(map[string]string{
			"q1": "  paris ",
			"q2": "true",
			"q3": "41",
		}, key)
		assert.Equal(t, 2, res.Correct)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 67, res.Percentage)
		assert.Equal(t, model.CEFRB1, res.Level)
	})

	t.Run("unanswered questions count as wrong", func(t *testing.T) {
		res := ScoreObjective(map[string]string{"q1": "paris"}, key)
		assert.Equal(t, 1, res.Correct)
		assert.Equal(t, 3, res.Total)
	})

	t.Run("stray answers are ignored", func(t *testing.T) {
		res := ScoreObjective(map[string]string{
			"q1": "paris", "q2": "true", "q3": "42", "ghost": "42",
		}, key)
		assert.Equal(t, 3, res.Correct)
		assert.Equal(t, 100, res.Percentage)
		assert.Equal(t, model.CEFRC1, res.Level)
	})

	t.Run("empty key yields zero result", func(t *testing.T) {
		res := ScoreObjective(map[string]string{"q1": "x"}, map[string]string{})
		assert.Equal(t, 0, res.Total)
		assert.Equal(t, 0, res.Percentage)
		assert.Equal(t, model.CEFRA2, res.Level)
	})
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("   \n\t "))
	assert.Equal(t, 5, CountWords("the quick  brown\nfox jumps"))
}

func TestOverallBand(t *testing.T) {
	assert.Equal(t, 0.0, OverallBand(nil))
	assert.Equal(t, 5.5, OverallBand([]float64{6.0, 5.0}))
	assert.Equal(t, 6.3, OverallBand([]float64{6.5, 6.0, 6.5}))
	assert.Equal(t, 7.0, OverallBand([]float64{7.0}))
}

func TestOverallBandLevelBoundary(t *testing.T) {
	// 6.0 and 5.0 average to 5.5, which must land in B1, not B2.
	band := OverallBand([]float64{6.0, 5.0})
	assert.Equal(t, model.CEFRB1, LevelForBand(band))
}

func TestAggregateAttempt(t *testing.T) {
	t.Run("mean percentage drives the overall level", func(t *testing.T) {
		res := AggregateAttempt(map[model.Skill]model.SkillResult{
			model.SkillListening: {Correct: 9, Total: 10, Percentage: 90, Level: model.CEFRC1},
			model.SkillReading:   {Correct: 8, Total: 10, Percentage: 80, Level: model.CEFRB2},
		})
		assert.Equal(t, 85, res.AveragePercentage)
		assert.Equal(t, model.CEFRC1, res.OverallLevel)
		assert.Len(t, res.SkillScores, 2)
	})

	t.Run("no scores yields the floor level", func(t *testing.T) {
		res := AggregateAttempt(nil)
		assert.Equal(t, 0, res.AveragePercentage)
		assert.Equal(t, model.CEFRA2, res.OverallLevel)
	})
}
