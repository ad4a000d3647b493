package service

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentprep/fluentprep-backend/internal/model"
)

func cachedReadingTest() *model.Test {
	q1, q2 := uuid.New(), uuid.New()
	partID := uuid.New()
	return &model.Test{
		ID:              uuid.New(),
		Title:           "Academic Reading 3",
		Skill:           model.SkillReading,
		DurationMinutes: 60,
		Parts: []model.Part{
			{
				ID:       partID,
				OrderNum: 1,
				Questions: []model.Question{
					{ID: q1, PartID: partID, QuestionType: model.QuestionTypeGapFill, CorrectAnswer: "harbour", OrderNum: 1},
					{ID: q2, PartID: partID, QuestionType: model.QuestionTypeTrueFalseNG, CorrectAnswer: "TRUE", OrderNum: 2},
				},
			},
		},
	}
}

func TestTestFromCacheRoundTrip(t *testing.T) {
	orig := cachedReadingTest()
	payloadJSON, err := json.Marshal(orig.CandidatePayload())
	require.NoError(t, err)

	rebuilt, ok := testFromCache(payloadJSON, orig.AnswerKey())
	require.True(t, ok)

	assert.Equal(t, orig.ID, rebuilt.ID)
	assert.Equal(t, orig.Skill, rebuilt.Skill)
	assert.Equal(t, orig.DurationMinutes, rebuilt.DurationMinutes)
	assert.Equal(t, orig.QuestionCount(), rebuilt.QuestionCount())
	assert.Equal(t, orig.AnswerKey(), rebuilt.AnswerKey())
}

func TestTestFromCacheRejectsEvictedAnswerKey(t *testing.T) {
	orig := cachedReadingTest()
	payloadJSON, err := json.Marshal(orig.CandidatePayload())
	require.NoError(t, err)

	// An objective test without its key cannot score; force the database path.
	_, ok := testFromCache(payloadJSON, map[string]string{})
	assert.False(t, ok)
}

func TestTestFromCacheAllowsWritingWithoutKey(t *testing.T) {
	writing := &model.Test{
		ID:              uuid.New(),
		Skill:           model.SkillWriting,
		DurationMinutes: 60,
		Parts: []model.Part{
			{ID: uuid.New(), OrderNum: 1, Questions: []model.Question{
				{ID: uuid.New(), QuestionType: model.QuestionTypeGapFill, OrderNum: 1},
			}},
		},
	}
	payloadJSON, err := json.Marshal(writing.CandidatePayload())
	require.NoError(t, err)

	rebuilt, ok := testFromCache(payloadJSON, nil)
	require.True(t, ok)
	assert.Equal(t, model.SkillWriting, rebuilt.Skill)
}

func TestTestFromCacheRejectsGarbagePayload(t *testing.T) {
	_, ok := testFromCache([]byte("not json"), map[string]string{"q": "a"})
	assert.False(t, ok)
}
