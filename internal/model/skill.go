package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Skill enumerates the four exam skills. Incoming payloads may carry skill
// names in arbitrary case; ParseSkill is the only way in.
type Skill string

const (
	SkillListening Skill = "LISTENING"
	SkillReading   Skill = "READING"
	SkillWriting   Skill = "WRITING"
	SkillSpeaking  Skill = "SPEAKING"
)

// AllSkills lists every skill in display order.
var AllSkills = []Skill{SkillListening, SkillReading, SkillWriting, SkillSpeaking}

// ParseSkill normalizes a raw skill name into the closed enumeration.
func ParseSkill(raw string) (Skill, error) {
	switch Skill(strings.ToUpper(strings.TrimSpace(raw))) {
	case SkillListening:
		return SkillListening, nil
	case SkillReading:
		return SkillReading, nil
	case SkillWriting:
		return SkillWriting, nil
	case SkillSpeaking:
		return SkillSpeaking, nil
	}
	return "", fmt.Errorf("unknown skill %q", raw)
}

// SelfPaced reports whether the skill runs under a single overall countdown
// instead of the audio-driven phase chain.
func (s Skill) SelfPaced() bool {
	return s != SkillListening
}

// NormalizeSubmitted coerces a raw per-skill submission value into a boolean.
// Upstream status payloads are inconsistent: the flag may arrive as a bool,
// a "true"/"false" string, or a numeric/string Unix timestamp of the
// submission (zero meaning not submitted).
func NormalizeSubmitted(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(val))
		if s == "" || s == "false" {
			return false
		}
		if s == "true" {
			return true
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n != 0
		}
		// Non-numeric non-boolean strings (e.g. an RFC3339 timestamp)
		// count as submitted.
		return true
	case nil:
		return false
	}
	return false
}

// NormalizeStatus converts a loosely-typed status payload into the closed
// skill → submitted mapping. Unknown keys are dropped; missing skills
// default to false.
func NormalizeStatus(raw map[string]any) map[Skill]bool {
	status := make(map[Skill]bool, len(AllSkills))
	for _, sk := range AllSkills {
		status[sk] = false
	}
	for key, val := range raw {
		sk, err := ParseSkill(key)
		if err != nil {
			continue
		}
		status[sk] = NormalizeSubmitted(val)
	}
	return status
}
