package engine

import "sync"

// AnswerLedger maps question identifiers to the candidate's raw submitted
// values. Writes are last-write-wins; entries are never deleted until the
// owning session is torn down.
type AnswerLedger struct {
	mu      sync.RWMutex
	answers map[string]string
}

// NewAnswerLedger creates an empty ledger.
func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{answers: make(map[string]string)}
}

// Set records an answer, overwriting any previous value.
func (l *AnswerLedger) Set(questionID, answer string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.answers[questionID] = answer
}

// Get returns the recorded answer for a question, if any.
func (l *AnswerLedger) Get(questionID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.answers[questionID]
	return v, ok
}

// Answered reports whether a question has a recorded answer.
func (l *AnswerLedger) Answered(questionID string) bool {
	_, ok := l.Get(questionID)
	return ok
}

// AnsweredCount returns the number of answered questions.
func (l *AnswerLedger) AnsweredCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.answers)
}

// Snapshot returns a copy of the ledger for scoring or persistence.
func (l *AnswerLedger) Snapshot() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.answers))
	for k, v := range l.answers {
		out[k] = v
	}
	return out
}
