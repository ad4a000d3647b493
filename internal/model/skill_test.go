package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSkill(t *testing.T) {
	for raw, want := range map[string]Skill{
		"LISTENING": SkillListening,
		"listening": SkillListening,
		" Reading ": SkillReading,
		"writing":   SkillWriting,
		"SPEAKING":  SkillSpeaking,
	} {
		got, err := ParseSkill(raw)
		require.NoError(t, err, "raw %q", raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseSkill("grammar")
	assert.Error(t, err)
	_, err = ParseSkill("")
	assert.Error(t, err)
}

func TestSelfPaced(t *testing.T) {
	assert.False(t, SkillListening.SelfPaced())
	assert.True(t, SkillReading.SelfPaced())
	assert.True(t, SkillWriting.SelfPaced())
	assert.True(t, SkillSpeaking.SelfPaced())
}

func TestNormalizeSubmitted(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"nonzero float", 1.69837482e9, true},
		{"zero float", 0.0, false},
		{"nonzero int", 1, true},
		{"zero int", 0, false},
		{"string true", "true", true},
		{"string TRUE", "TRUE", true},
		{"string false", "false", false},
		{"empty string", "", false},
		{"numeric string", "1698374820", true},
		{"zero string", "0", false},
		{"timestamp string", "2026-03-01T10:00:00Z", true},
		{"nil", nil, false},
		{"unsupported type", []string{"x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeSubmitted(tc.in))
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	t.Run("mixed-case keys and mixed value types", func(t *testing.T) {
		status := NormalizeStatus(map[string]any{
			"listening": true,
			"Reading":   1.698e9,
			"WRITING":   "false",
			"vocab":     true,
		})
		assert.True(t, status[SkillListening])
		assert.True(t, status[SkillReading])
		assert.False(t, status[SkillWriting])
		assert.False(t, status[SkillSpeaking])
		assert.Len(t, status, 4)
	})

	t.Run("empty payload defaults everything to false", func(t *testing.T) {
		status := NormalizeStatus(nil)
		require.Len(t, status, 4)
		for _, sk := range AllSkills {
			assert.False(t, status[sk])
		}
	})
}

func TestMockExamTestIDFor(t *testing.T) {
	exam := &MockExam{
		ListeningTestID: uuid.New(),
		ReadingTestID:   uuid.New(),
		WritingTestID:   uuid.New(),
		SpeakingTestID:  uuid.New(),
	}
	assert.Equal(t, exam.ListeningTestID, exam.TestIDFor(SkillListening))
	assert.Equal(t, exam.ReadingTestID, exam.TestIDFor(SkillReading))
	assert.Equal(t, exam.WritingTestID, exam.TestIDFor(SkillWriting))
	assert.Equal(t, exam.SpeakingTestID, exam.TestIDFor(SkillSpeaking))
	assert.Equal(t, uuid.Nil, exam.TestIDFor(Skill("OTHER")))
}

func TestCandidatePayloadStripsAnswers(t *testing.T) {
	test := &Test{
		ID:              uuid.New(),
		Title:           "Sample",
		Skill:           SkillReading,
		DurationMinutes: 60,
		Parts: []Part{
			{
				ID: uuid.New(),
				Questions: []Question{
					{ID: uuid.New(), QuestionText: "Q1", CorrectAnswer: "secret"},
				},
			},
		},
	}

	payload := test.CandidatePayload()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "correct_answer")

	key := test.AnswerKey()
	assert.Equal(t, "secret", key[test.Parts[0].Questions[0].ID.String()])
}
