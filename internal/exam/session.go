package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/model"
)

// State enumerates the session lifecycle. Completed is terminal.
type State string

const (
	StateTypeSelection         State = "TYPE_SELECTION"
	StateAwaitingAuthorization State = "AWAITING_AUTHORIZATION"
	StateInProgress            State = "IN_PROGRESS"
	StateSubmitting            State = "SUBMITTING"
	StateCompleted             State = "COMPLETED"
)

// Deps bundles the collaborators a session needs. TickInterval defaults to
// one second; tests shrink it for fast countdown coverage.
type Deps struct {
	Snapshots    SnapshotStore
	Results      ResultStore
	Notifier     Notifier
	Log          zerolog.Logger
	TickInterval time.Duration
}

// Session is the orchestrating state machine for one candidate's exam
// attempt. Manual advance, countdown timeout, and integrity violations all
// funnel through the same guarded advance/submit path; the mutex serializes
// events that fire on the same tick.
type Session struct {
	mu sync.Mutex

	candidate model.Candidate
	examType  model.ExamType
	state     State

	exam      *model.GeneratedExam
	answers   model.AnswerMap
	cursor    int
	remaining int
	violated  bool

	countdown *Countdown
	scorer    *Scorer
	deps      Deps
	log       zerolog.Logger

	subscribers map[chan StreamEvent]struct{}
}

// NewSession creates a session in TypeSelection for the chosen exam type.
func NewSession(candidate model.Candidate, examType model.ExamType, deps Deps) *Session {
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	return &Session{
		candidate: candidate,
		examType:  examType,
		state:     StateTypeSelection,
		answers:   make(model.AnswerMap),
		scorer:    newScorer(deps.Results, deps.Snapshots, deps.Notifier, deps.Log),
		deps:      deps,
		log: deps.Log.With().
			Str("component", "exam_session").
			Str("candidate_id", candidate.ID.String()).
			Str("exam_type", examType.Name).
			Logger(),
		subscribers: make(map[chan StreamEvent]struct{}),
	}
}

// Candidate returns the owning candidate.
func (s *Session) Candidate() model.Candidate {
	return s.candidate
}

// ExamType returns the selected exam type.
func (s *Session) ExamType() model.ExamType {
	return s.examType
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AwaitAuthorization moves the session behind the one-time token gate.
func (s *Session) AwaitAuthorization() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTypeSelection {
		return ErrWrongState
	}
	s.state = StateAwaitingAuthorization
	return nil
}

// Begin enters the question loop with a freshly generated exam. Valid from
// TypeSelection (privileged bypass) and AwaitingAuthorization (after token
// verification).
func (s *Session) Begin(ctx context.Context, exam *model.GeneratedExam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateTypeSelection && s.state != StateAwaitingAuthorization {
		return ErrWrongState
	}
	if len(exam.Questions) == 0 {
		return ErrEmptyPool
	}

	s.exam = exam
	s.answers = make(model.AnswerMap)
	s.cursor = 0
	s.remaining = exam.Questions[0].TimeLimitSeconds
	s.state = StateInProgress

	s.saveSnapshotLocked(ctx)
	s.startCountdownLocked()
	s.log.Info().Int("questions", len(exam.Questions)).Msg("Exam started")
	return nil
}

// Resume re-enters the question loop from a recovery snapshot, at the
// persisted cursor, answers, and remaining time.
func (s *Session) Resume(ctx context.Context, snap *model.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateTypeSelection {
		return ErrWrongState
	}
	if snap.Exam == nil || len(snap.Exam.Questions) == 0 {
		return ErrEmptyPool
	}

	s.exam = snap.Exam
	s.answers = snap.Answers.Clone()
	if s.answers == nil {
		s.answers = make(model.AnswerMap)
	}
	s.cursor = snap.Cursor
	if s.cursor < 0 || s.cursor >= len(snap.Exam.Questions) {
		s.cursor = 0
	}
	s.remaining = snap.RemainingSeconds
	if s.remaining <= 0 {
		s.remaining = snap.Exam.Questions[s.cursor].TimeLimitSeconds
	}
	s.state = StateInProgress

	s.saveSnapshotLocked(ctx)
	s.startCountdownLocked()
	s.log.Info().Int("cursor", s.cursor).Msg("Session resumed from snapshot")
	return nil
}

// Answer mutates the answer for the current question. Multi-choice toggles
// membership of the option index; single-choice replaces the prior selection
// (re-selecting the same index deselects it). questionID guards against late
// writes addressed at a question that is no longer current.
func (s *Session) Answer(ctx context.Context, questionID uuid.UUID, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrWrongState
	}

	q := s.exam.Questions[s.cursor]
	if q.ID != questionID {
		return ErrStaleQuestion
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return ErrStaleQuestion
	}

	ans := s.answers[q.ID]
	if q.MultipleChoice {
		if ans.Contains(optionIndex) {
			kept := make([]int, 0, len(ans.Selected))
			for _, idx := range ans.Selected {
				if idx != optionIndex {
					kept = append(kept, idx)
				}
			}
			ans.Selected = kept
		} else {
			ans.Selected = append(ans.Selected, optionIndex)
		}
	} else {
		if ans.Contains(optionIndex) {
			ans.Selected = nil
		} else {
			ans.Selected = []int{optionIndex}
		}
	}

	if len(ans.Selected) == 0 {
		delete(s.answers, q.ID)
	} else {
		s.answers[q.ID] = ans
	}

	s.saveSnapshotLocked(ctx)
	return nil
}

// Next advances to the next question, or transitions to Submitting when the
// current question is the last one. Manual advance requires an answer; the
// timeout and violation paths inject the no-answer sentinel before reusing
// this same advance logic.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrWrongState
	}
	if !s.answeredLocked() {
		return ErrAnswerRequired
	}
	return s.advanceLocked(ctx)
}

// RetrySubmit re-runs a submission whose persist failed. The graded result
// is retained in memory, so no re-answering is needed.
func (s *Session) RetrySubmit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSubmitting {
		return ErrWrongState
	}
	return s.submitLocked(ctx)
}

// Result returns the graded result once grading has happened, else nil.
func (s *Session) Result() *model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scorer.Result()
}

// Close stops the countdown. Used on shutdown; the snapshot keeps the
// session resumable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown != nil {
		s.countdown.stop()
	}
}

// ─── Internal transitions (all require s.mu held) ───────────────────

func (s *Session) startCountdownLocked() {
	if s.countdown != nil {
		s.countdown.stop()
	}
	s.countdown = newCountdown(s.deps.TickInterval)
	s.countdown.start(s.handleTick)
}

// handleTick decrements the current question's clock and refreshes the
// recovery snapshot so a reload mid-question resumes with the elapsed time
// gone, not with a fresh clock. Returns false to stop the tick loop once
// the session has left the question loop.
func (s *Session) handleTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return false
	}

	s.remaining--
	if s.remaining > 0 {
		s.saveSnapshotLocked(context.Background())
		s.broadcastLocked(StreamEvent{Type: StreamTick, Cursor: s.cursor, RemainingSeconds: s.remaining})
		return true
	}

	// Time is up: unanswered questions get the sentinel, then the regular
	// advance path runs so timeout is not a special case downstream.
	q := s.exam.Questions[s.cursor]
	if !s.answeredLocked() {
		s.answers[q.ID] = model.NoAnswerSentinel()
	}
	if err := s.advanceLocked(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("Timeout advance failed")
	}
	return s.state == StateInProgress
}

// answeredLocked reports whether the current question has any answer
// recorded (a real selection or the sentinel).
func (s *Session) answeredLocked() bool {
	_, ok := s.answers[s.exam.Questions[s.cursor].ID]
	return ok
}

// advanceLocked moves the cursor forward or, on the last question, hands
// over to the scoring engine.
func (s *Session) advanceLocked(ctx context.Context) error {
	if s.cursor == len(s.exam.Questions)-1 {
		s.state = StateSubmitting
		s.countdown.stop()
		return s.submitLocked(ctx)
	}

	s.cursor++
	s.remaining = s.exam.Questions[s.cursor].TimeLimitSeconds
	s.saveSnapshotLocked(ctx)
	s.broadcastLocked(StreamEvent{Type: StreamAdvanced, Cursor: s.cursor, RemainingSeconds: s.remaining})
	return nil
}

// submitLocked runs the guarded submission. On persist failure the session
// stays in Submitting and the error is surfaced as retryable.
func (s *Session) submitLocked(ctx context.Context) error {
	result, err := s.scorer.Submit(ctx, s.candidate, s.examType, s.exam, s.answers)
	if err != nil {
		s.log.Warn().Err(err).Msg("Submission persist failed, retry possible")
		s.broadcastLocked(StreamEvent{Type: StreamSubmitFailed, Cursor: s.cursor})
		return err
	}

	s.state = StateCompleted
	s.broadcastLocked(StreamEvent{
		Type:       StreamGraded,
		Cursor:     s.cursor,
		Percentage: result.Percentage,
		Passed:     result.Passed,
	})
	s.closeSubscribersLocked()
	return nil
}

// saveSnapshotLocked persists the recovery snapshot, best effort. The state
// check drops late writes once the session is no longer in the question
// loop.
func (s *Session) saveSnapshotLocked(ctx context.Context) {
	if s.state != StateInProgress {
		return
	}

	snap := &model.SessionSnapshot{
		CandidateID:      s.candidate.ID,
		ExamType:         s.examType,
		Exam:             s.exam,
		Cursor:           s.cursor,
		Answers:          s.answers.Clone(),
		RemainingSeconds: s.remaining,
		SavedAt:          time.Now(),
	}
	if err := s.deps.Snapshots.Save(ctx, s.candidate.ID, snap); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot save failed")
	}
}
