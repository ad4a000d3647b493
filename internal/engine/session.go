package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fluentprep/fluentprep-backend/internal/model"
	"github.com/fluentprep/fluentprep-backend/internal/scoring"
)

// Phase enumerates the skill session states. Listening sessions walk
// PREPARING → READING → PLAYING (→ READING ...) → FINISHED; self-paced
// skills run IN_PROGRESS → FINISHED under a single overall countdown.
type Phase string

const (
	PhasePreparing  Phase = "PREPARING"
	PhaseReading    Phase = "READING"
	PhasePlaying    Phase = "PLAYING"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseFinished   Phase = "FINISHED"
)

// EventType classifies session events pushed to live listeners.
type EventType string

const (
	EventTick     EventType = "tick"
	EventPhase    EventType = "phase"
	EventAudio    EventType = "audio"
	EventFinished EventType = "finished"
)

// Event is a session lifecycle notification delivered to the listener
// (the WebSocket stream, in practice).
type Event struct {
	Type         EventType `json:"type"`
	Phase        Phase     `json:"phase"`
	PartIndex    int       `json:"part_index"`
	Remaining    int       `json:"remaining_seconds"`
	AudioActive  bool      `json:"audio_active"`
	AudioPercent float64   `json:"audio_percent"`
}

// SessionContext carries the identifiers needed to associate a session's
// result back to its test and, for mock attempts, its attempt.
type SessionContext struct {
	SessionID   uuid.UUID
	TestID      uuid.UUID
	Skill       model.Skill
	CandidateID int
	AttemptID   *uuid.UUID
	ExamID      *uuid.UUID
}

// ResultSink receives a session's answers (and objective result, when the
// skill has one) exactly once, on completion.
type ResultSink interface {
	SubmitSkillResult(ctx context.Context, sc SessionContext, result *model.SkillResult, answers map[string]string) error
}

// Timings configures the phase countdowns.
type Timings struct {
	LeadInSeconds      int
	PartReadingSeconds int
	TickInterval       time.Duration
}

// DefaultTimings mirrors the production lead-in and per-part reading windows.
func DefaultTimings() Timings {
	return Timings{
		LeadInSeconds:      30,
		PartReadingSeconds: 10,
		TickInterval:       time.Second,
	}
}

// State is a point-in-time snapshot of a session.
type State struct {
	Phase         Phase
	PartIndex     int
	Remaining     int
	AudioActive   bool
	AudioPercent  float64
	AnsweredCount int
	Result        *model.SkillResult
}

// SkillSession drives one candidate's attempt at one skill test. All
// transitions are serialized through one mutex; countdown expiries and
// audio events that arrive after the phase they belong to has been left
// are discarded.
type SkillSession struct {
	// mu is not held while emitting events or submitting results, so
	// listeners and the sink may call back into the session.
	mu sync.Mutex

	ctx       SessionContext
	test      *model.Test
	answerKey map[string]string
	timings   Timings

	phase        Phase
	partIndex    int
	started      bool
	countdown    *Countdown
	audioActive  bool
	audioPercent float64

	ledger   *AnswerLedger
	result   *model.SkillResult
	sink     ResultSink
	listener func(Event)
	log      zerolog.Logger
}

// NewSkillSession validates the test and builds an unstarted session.
// Question identifiers must be unique across the whole test.
func NewSkillSession(sc SessionContext, test *model.Test, timings Timings, sink ResultSink, log zerolog.Logger) (*SkillSession, error) {
	if len(test.Parts) == 0 {
		return nil, ErrNoParts
	}
	seen := make(map[uuid.UUID]struct{}, test.QuestionCount())
	for i := range test.Parts {
		for _, q := range test.Parts[i].Questions {
			if _, dup := seen[q.ID]; dup {
				return nil, ErrDuplicateQuestionID
			}
			seen[q.ID] = struct{}{}
		}
	}
	if timings.TickInterval <= 0 {
		timings.TickInterval = time.Second
	}

	initial := PhaseInProgress
	if sc.Skill == model.SkillListening {
		initial = PhasePreparing
	}

	return &SkillSession{
		ctx:       sc,
		test:      test,
		answerKey: test.AnswerKey(),
		timings:   timings,
		phase:     initial,
		ledger:    NewAnswerLedger(),
		sink:      sink,
		log: log.With().
			Str("session_id", sc.SessionID.String()).
			Str("skill", string(sc.Skill)).
			Logger(),
	}, nil
}

// SetListener registers the event listener. Must be set before Start or
// while holding no session calls in flight.
func (s *SkillSession) SetListener(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Context returns the session's identifiers.
func (s *SkillSession) Context() SessionContext { return s.ctx }

// Ledger returns the session's answer ledger.
func (s *SkillSession) Ledger() *AnswerLedger { return s.ledger }

// Start begins the session's first countdown: the fixed lead-in for
// Listening, or the overall test duration for self-paced skills.
func (s *SkillSession) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.started = true

	var ev Event
	if s.ctx.Skill == model.SkillListening {
		s.startCountdownLocked(s.timings.LeadInSeconds, s.expirePreparing)
		ev = s.phaseEventLocked()
	} else {
		s.startCountdownLocked(s.test.DurationMinutes*60, s.expireOverall)
		ev = s.phaseEventLocked()
	}
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// StartNow skips the remaining lead-in and begins reading for Part 0.
func (s *SkillSession) StartNow() error {
	s.mu.Lock()
	if s.phase != PhasePreparing {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	ev := s.enterReadingLocked(0)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// SetAnswer writes the candidate's input into the ledger. Capture is
// available in every phase except PREPARING.
func (s *SkillSession) SetAnswer(questionID, answer string) error {
	s.mu.Lock()
	switch s.phase {
	case PhasePreparing:
		s.mu.Unlock()
		return ErrAnswerNotOpen
	case PhaseFinished:
		s.mu.Unlock()
		return ErrSessionFinished
	}
	s.mu.Unlock()

	s.ledger.Set(questionID, answer)
	return nil
}

// AudioStarted confirms playback began (initially or after a retry).
func (s *SkillSession) AudioStarted() error {
	s.mu.Lock()
	if s.phase != PhasePlaying {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.audioActive = true
	ev := s.audioEventLocked()
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// AudioBlocked records that the runtime rejected autoplay. The session
// stays in PLAYING with inactive audio so the candidate can retry; it
// never silently skips the part.
func (s *SkillSession) AudioBlocked() error {
	s.mu.Lock()
	if s.phase != PhasePlaying {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.audioActive = false
	ev := s.audioEventLocked()
	s.mu.Unlock()

	s.log.Warn().Int("part", ev.PartIndex).Msg("Audio playback blocked")
	s.emit(ev)
	return nil
}

// ReportAudioProgress updates the 0–100 playback percentage. A zero or
// unknown duration leaves the percentage untouched rather than producing
// an undefined ratio.
func (s *SkillSession) ReportAudioProgress(elapsed, duration float64) error {
	s.mu.Lock()
	if s.phase != PhasePlaying {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	if duration > 0 {
		pct := elapsed / duration * 100
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		s.audioPercent = pct
	}
	ev := s.audioEventLocked()
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// AudioEnded advances past the current part: to READING for the next part
// if one remains, otherwise to FINISHED and scoring. A stale completion
// event arriving after the session finished is a no-op.
func (s *SkillSession) AudioEnded() error {
	s.mu.Lock()
	if s.phase == PhaseFinished {
		s.mu.Unlock()
		return nil
	}
	if s.phase != PhasePlaying {
		s.mu.Unlock()
		return ErrInvalidPhase
	}

	if s.partIndex+1 < len(s.test.Parts) {
		ev := s.enterReadingLocked(s.partIndex + 1)
		s.mu.Unlock()
		s.emit(ev)
		return nil
	}

	ev, submit := s.finishLocked()
	s.mu.Unlock()
	s.emit(ev)
	submit()
	return nil
}

// ForceFinish ends the session from any state: pending timers are
// cancelled and audio stopped before the scoring pipeline runs.
// Finishing an already-finished session is a no-op.
func (s *SkillSession) ForceFinish() error {
	s.mu.Lock()
	if s.phase == PhaseFinished {
		s.mu.Unlock()
		return nil
	}
	ev, submit := s.finishLocked()
	s.mu.Unlock()

	s.emit(ev)
	submit()
	return nil
}

// Cancel tears the session down without scoring (navigate-away semantics):
// pending timers are cancelled so nothing fires afterwards.
func (s *SkillSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown != nil {
		s.countdown.Stop()
	}
	s.audioActive = false
	s.phase = PhaseFinished
}

// State returns a snapshot of the session.
func (s *SkillSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := 0
	if s.countdown != nil {
		remaining = s.countdown.Remaining()
	}
	return State{
		Phase:         s.phase,
		PartIndex:     s.partIndex,
		Remaining:     remaining,
		AudioActive:   s.audioActive,
		AudioPercent:  s.audioPercent,
		AnsweredCount: s.ledger.AnsweredCount(),
		Result:        s.result,
	}
}

// Result returns the terminal result, or nil while the session runs or
// when the skill has no objective score.
func (s *SkillSession) Result() *model.SkillResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ─── Internal transitions (s.mu held) ───────────────────────────────

func (s *SkillSession) startCountdownLocked(seconds int, expire func()) {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	c := NewCountdown(seconds, s.handleTick, expire)
	c.SetInterval(s.timings.TickInterval)
	s.countdown = c
	c.Start()
}

func (s *SkillSession) enterReadingLocked(part int) Event {
	s.phase = PhaseReading
	s.partIndex = part
	s.audioActive = false
	s.audioPercent = 0
	s.startCountdownLocked(s.timings.PartReadingSeconds, func() { s.expireReading(part) })
	return s.phaseEventLocked()
}

func (s *SkillSession) enterPlayingLocked() Event {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	s.phase = PhasePlaying
	s.audioActive = true
	s.audioPercent = 0
	return s.phaseEventLocked()
}

// finishLocked stops timers and audio, scores objective skills, and
// returns the finished event plus a deferred sink submission to run
// outside the lock.
func (s *SkillSession) finishLocked() (Event, func()) {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	s.audioActive = false
	s.audioPercent = 0
	s.phase = PhaseFinished

	answers := s.ledger.Snapshot()
	if s.ctx.Skill == model.SkillListening || s.ctx.Skill == model.SkillReading {
		res := scoring.ScoreObjective(answers, s.answerKey)
		s.result = &res
	}

	sc := s.ctx
	res := s.result
	sink := s.sink
	log := s.log
	submit := func() {
		if sink == nil {
			return
		}
		if err := sink.SubmitSkillResult(context.Background(), sc, res, answers); err != nil {
			log.Error().Err(err).Msg("Submit skill result failed")
		}
	}

	return Event{Type: EventFinished, Phase: PhaseFinished, PartIndex: s.partIndex}, submit
}

// ─── Countdown callbacks (run without s.mu) ─────────────────────────

func (s *SkillSession) handleTick(remaining int) {
	s.mu.Lock()
	if s.phase == PhaseFinished {
		s.mu.Unlock()
		return
	}
	ev := Event{
		Type:         EventTick,
		Phase:        s.phase,
		PartIndex:    s.partIndex,
		Remaining:    remaining,
		AudioActive:  s.audioActive,
		AudioPercent: s.audioPercent,
	}
	s.mu.Unlock()
	s.emit(ev)
}

func (s *SkillSession) expirePreparing() {
	s.mu.Lock()
	if s.phase != PhasePreparing {
		// StartNow or ForceFinish won the race; this expiry is stale.
		s.mu.Unlock()
		return
	}
	ev := s.enterReadingLocked(0)
	s.mu.Unlock()
	s.emit(ev)
}

func (s *SkillSession) expireReading(part int) {
	s.mu.Lock()
	if s.phase != PhaseReading || s.partIndex != part {
		s.mu.Unlock()
		return
	}
	ev := s.enterPlayingLocked()
	s.mu.Unlock()
	s.emit(ev)
}

func (s *SkillSession) expireOverall() {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return
	}
	ev, submit := s.finishLocked()
	s.mu.Unlock()
	s.emit(ev)
	submit()
}

// ─── Event emission ─────────────────────────────────────────────────

func (s *SkillSession) phaseEventLocked() Event {
	remaining := 0
	if s.countdown != nil {
		remaining = s.countdown.Remaining()
	}
	return Event{
		Type:         EventPhase,
		Phase:        s.phase,
		PartIndex:    s.partIndex,
		Remaining:    remaining,
		AudioActive:  s.audioActive,
		AudioPercent: s.audioPercent,
	}
}

func (s *SkillSession) audioEventLocked() Event {
	return Event{
		Type:         EventAudio,
		Phase:        s.phase,
		PartIndex:    s.partIndex,
		AudioActive:  s.audioActive,
		AudioPercent: s.audioPercent,
	}
}

func (s *SkillSession) emit(ev Event) {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
