package engine

import "errors"

// Domain errors surfaced to handlers. Stale timer or audio events that
// arrive after a transition are swallowed inside the session, never here.
var (
	ErrInvalidPhase        = errors.New("action not valid in current phase")
	ErrSessionFinished     = errors.New("session is already finished")
	ErrAnswerNotOpen       = errors.New("answer capture is not open yet")
	ErrSessionNotFound     = errors.New("session not found")
	ErrDuplicateQuestionID = errors.New("duplicate question identifier in test")
	ErrNoParts             = errors.New("test has no parts")
)
