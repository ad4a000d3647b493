package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeGapFill        QuestionType = "GAP_FILL"
	QuestionTypeMatching       QuestionType = "MATCHING"
	QuestionTypeMapLabeling    QuestionType = "MAP_LABELING"
	QuestionTypeTrueFalseNG    QuestionType = "TRUE_FALSE_NOT_GIVEN"
)

// Question is a single scoreable unit within a Part. CorrectAnswer is never
// sent to candidates; QuestionForCandidate strips it.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	PartID        uuid.UUID       `json:"part_id"`
	QuestionText  string          `json:"question_text"`
	QuestionType  QuestionType    `json:"question_type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correct_answer"`
	WordLimit     *int            `json:"word_limit,omitempty"`
	OrderNum      int             `json:"order_num"`
}

// Part groups questions sharing one instruction and, for Listening, one
// audio asset.
type Part struct {
	ID          uuid.UUID  `json:"id"`
	TestID      uuid.UUID  `json:"test_id"`
	Instruction string     `json:"instruction"`
	AudioURL    string     `json:"audio_url,omitempty"`
	OrderNum    int        `json:"order_num"`
	Questions   []Question `json:"questions"`
}

// Test is one skill test: an ordered sequence of Parts.
type Test struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Skill           Skill     `json:"skill"`
	DurationMinutes int       `json:"duration_minutes"`
	Parts           []Part    `json:"parts"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuestionCount returns the total number of questions across all parts.
func (t *Test) QuestionCount() int {
	n := 0
	for i := range t.Parts {
		n += len(t.Parts[i].Questions)
	}
	return n
}

// AnswerKey builds the question-id → correct-answer map used by the
// objective scorer.
func (t *Test) AnswerKey() map[string]string {
	key := make(map[string]string, t.QuestionCount())
	for i := range t.Parts {
		for _, q := range t.Parts[i].Questions {
			key[q.ID.String()] = q.CorrectAnswer
		}
	}
	return key
}

// QuestionForCandidate is a question without its correct answer.
type QuestionForCandidate struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options,omitempty"`
	WordLimit    *int            `json:"word_limit,omitempty"`
	OrderNum     int             `json:"order_num"`
}

// PartForCandidate is a part with its questions stripped of answers.
type PartForCandidate struct {
	ID          uuid.UUID              `json:"id"`
	Instruction string                 `json:"instruction"`
	AudioURL    string                 `json:"audio_url,omitempty"`
	OrderNum    int                    `json:"order_num"`
	Questions   []QuestionForCandidate `json:"questions"`
}

// TestPayload is the Redis-cached candidate-safe payload (no correct answers).
type TestPayload struct {
	TestID          uuid.UUID          `json:"test_id"`
	Title           string             `json:"title"`
	Skill           Skill              `json:"skill"`
	DurationMinutes int                `json:"duration_minutes"`
	Parts           []PartForCandidate `json:"parts"`
}

// CandidatePayload strips the answer key from a test.
func (t *Test) CandidatePayload() *TestPayload {
	parts := make([]PartForCandidate, len(t.Parts))
	for i, p := range t.Parts {
		questions := make([]QuestionForCandidate, len(p.Questions))
		for j, q := range p.Questions {
			questions[j] = QuestionForCandidate{
				ID:           q.ID,
				QuestionText: q.QuestionText,
				QuestionType: q.QuestionType,
				Options:      q.Options,
				WordLimit:    q.WordLimit,
				OrderNum:     q.OrderNum,
			}
		}
		parts[i] = PartForCandidate{
			ID:          p.ID,
			Instruction: p.Instruction,
			AudioURL:    p.AudioURL,
			OrderNum:    p.OrderNum,
			Questions:   questions,
		}
	}
	return &TestPayload{
		TestID:          t.ID,
		Title:           t.Title,
		Skill:           t.Skill,
		DurationMinutes: t.DurationMinutes,
		Parts:           parts,
	}
}

// WithAnswerKey rebuilds a full Test from the cached payload plus a
// question-id → correct-answer map. Questions missing from the key get an
// empty answer; cache timestamps are not preserved.
func (p *TestPayload) WithAnswerKey(key map[string]string) *Test {
	parts := make([]Part, len(p.Parts))
	for i, cp := range p.Parts {
		questions := make([]Question, len(cp.Questions))
		for j, cq := range cp.Questions {
			questions[j] = Question{
				ID:            cq.ID,
				PartID:        cp.ID,
				QuestionText:  cq.QuestionText,
				QuestionType:  cq.QuestionType,
				Options:       cq.Options,
				CorrectAnswer: key[cq.ID.String()],
				WordLimit:     cq.WordLimit,
				OrderNum:      cq.OrderNum,
			}
		}
		parts[i] = Part{
			ID:          cp.ID,
			TestID:      p.TestID,
			Instruction: cp.Instruction,
			AudioURL:    cp.AudioURL,
			OrderNum:    cp.OrderNum,
			Questions:   questions,
		}
	}
	return &Test{
		ID:              p.TestID,
		Title:           p.Title,
		Skill:           p.Skill,
		DurationMinutes: p.DurationMinutes,
		Parts:           parts,
	}
}

// MockExam references the four constituent skill tests of a full mock exam.
type MockExam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	ListeningTestID uuid.UUID `json:"listening_test_id"`
	ReadingTestID   uuid.UUID `json:"reading_test_id"`
	WritingTestID   uuid.UUID `json:"writing_test_id"`
	SpeakingTestID  uuid.UUID `json:"speaking_test_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TestIDFor returns the constituent test ID for a skill.
func (m *MockExam) TestIDFor(skill Skill) uuid.UUID {
	switch skill {
	case SkillListening:
		return m.ListeningTestID
	case SkillReading:
		return m.ReadingTestID
	case SkillWriting:
		return m.WritingTestID
	case SkillSpeaking:
		return m.SpeakingTestID
	}
	return uuid.Nil
}
