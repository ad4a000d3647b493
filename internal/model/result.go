package model

// CEFRLevel is the standardized proficiency tier derived from a band or
// percentage via a threshold table. C2 is not awarded by this platform.
type CEFRLevel string

const (
	CEFRA1 CEFRLevel = "A1"
	CEFRA2 CEFRLevel = "A2"
	CEFRB1 CEFRLevel = "B1"
	CEFRB2 CEFRLevel = "B2"
	CEFRC1 CEFRLevel = "C1"
)

// SkillResult is the outcome of objective scoring for one skill session.
type SkillResult struct {
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	Level      CEFRLevel `json:"level"`
}

// AttemptResult is the aggregate outcome of a finalized mock attempt:
// the per-skill results of every submitted skill plus the mean percentage
// across them, mapped to a level through the same cascade table.
type AttemptResult struct {
	SkillScores       map[Skill]SkillResult `json:"skill_scores"`
	AveragePercentage int                   `json:"average_percentage"`
	OverallLevel      CEFRLevel             `json:"overall_level"`
}
