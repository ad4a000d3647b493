package model

// WritingTask is one free-text task submitted for rubric evaluation.
type WritingTask struct {
	Instruction string `json:"instruction" binding:"required"`
	Prompt      string `json:"prompt"`
	Answer      string `json:"answer" binding:"required"`
	MinWords    int    `json:"min_words" binding:"min=0"`
	MaxWords    int    `json:"max_words" binding:"min=0"`
}

// CriterionScore is one named rubric criterion with commentary.
type CriterionScore struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// RubricResult is the structured evaluation of a single writing task.
type RubricResult struct {
	Band          float64          `json:"band"`
	Level         CEFRLevel        `json:"level"`
	WordCount     int              `json:"word_count"`
	Criteria      []CriterionScore `json:"criteria"`
	Strengths     []string         `json:"strengths"`
	Weaknesses    []string         `json:"weaknesses"`
	Corrections   []string         `json:"corrections"`
	Summary       string           `json:"summary"`
	CorrectedText string           `json:"corrected_text"`
}

// WritingEvaluation is the whole-batch result: per-task rubric results plus
// the overall band (mean, one decimal) and its re-derived level.
type WritingEvaluation struct {
	OverallBand  float64        `json:"overall_band"`
	OverallLevel CEFRLevel      `json:"overall_level"`
	Tasks        []RubricResult `json:"tasks"`
}

// EvaluateWritingRequest is the payload for a writing evaluation batch.
type EvaluateWritingRequest struct {
	Tasks []WritingTask `json:"tasks" binding:"required,min=1,max=4,dive"`
}
