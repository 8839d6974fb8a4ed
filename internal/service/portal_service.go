package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/exam"
	"github.com/horizon-rp/department-backend/internal/model"
)

// ErrNoActiveSession means the candidate has no live exam session (and no
// resumable snapshot).
var ErrNoActiveSession = errors.New("no active exam session")

// ErrExamTypeUnavailable means the requested exam type does not exist or is
// deactivated.
var ErrExamTypeUnavailable = errors.New("exam type is not available")

// PortalService owns the live exam sessions, one per candidate, and
// orchestrates generation, the token gate, recovery, and the question loop
// against the engine.
type PortalService struct {
	catalog    exam.Catalog
	authorizer exam.Authorizer
	snapshots  exam.SnapshotStore
	results    exam.ResultStore
	notifier   exam.Notifier
	log        zerolog.Logger

	// tickInterval is forwarded to sessions; tests shrink it.
	tickInterval time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*exam.Session
}

// NewPortalService creates a new PortalService.
func NewPortalService(
	catalog exam.Catalog,
	authorizer exam.Authorizer,
	snapshots exam.SnapshotStore,
	results exam.ResultStore,
	notifier exam.Notifier,
	log zerolog.Logger,
) *PortalService {
	return &PortalService{
		catalog:      catalog,
		authorizer:   authorizer,
		snapshots:    snapshots,
		results:      results,
		notifier:     notifier,
		log:          log.With().Str("component", "portal_service").Logger(),
		tickInterval: time.Second,
		sessions:     make(map[uuid.UUID]*exam.Session),
	}
}

// ListExamTypes returns the selectable exam types.
func (s *PortalService) ListExamTypes(ctx context.Context) ([]model.ExamType, error) {
	return s.catalog.ListExamTypes(ctx)
}

// StartSession begins (or rejoins) an exam session for the candidate.
// An unexpired snapshot takes precedence over a fresh start: the candidate
// re-enters the question loop where they left off instead of regenerating.
// Privileged candidates skip the access-token gate.
func (s *PortalService) StartSession(ctx context.Context, candidate model.Candidate, examTypeID uuid.UUID) (exam.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[candidate.ID]; ok && sess.State() != exam.StateCompleted {
		return sess.View(), nil
	}

	if view, ok, err := s.resumeLocked(ctx, candidate); err != nil {
		return exam.SessionView{}, err
	} else if ok {
		return view, nil
	}

	examType, err := s.catalog.GetExamType(ctx, examTypeID)
	if err != nil {
		return exam.SessionView{}, ErrExamTypeUnavailable
	}
	if !examType.Active {
		return exam.SessionView{}, ErrExamTypeUnavailable
	}

	sess := exam.NewSession(candidate, *examType, s.sessionDeps())

	if candidate.Privileged {
		generated, err := s.generate(ctx, *examType)
		if err != nil {
			return exam.SessionView{}, err
		}
		if err := sess.Begin(ctx, generated); err != nil {
			return exam.SessionView{}, err
		}
	} else {
		if err := sess.AwaitAuthorization(); err != nil {
			return exam.SessionView{}, err
		}
	}

	s.sessions[candidate.ID] = sess
	return sess.View(), nil
}

// Authorize verifies and consumes the candidate's one-time access token. On
// failure the session stays in AwaitingAuthorization and the candidate may
// retry with another token.
func (s *PortalService) Authorize(ctx context.Context, candidate model.Candidate, token string) (exam.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[candidate.ID]
	if !ok {
		return exam.SessionView{}, ErrNoActiveSession
	}
	if sess.State() != exam.StateAwaitingAuthorization {
		return exam.SessionView{}, exam.ErrWrongState
	}

	examType := sess.ExamType()
	if err := s.authorizer.VerifyAndConsume(ctx, token, candidate.ID, examType.ID); err != nil {
		if errors.Is(err, exam.ErrAuthorization) {
			return exam.SessionView{}, exam.ErrAuthorization
		}
		return exam.SessionView{}, fmt.Errorf("verify token: %w", err)
	}

	generated, err := s.generate(ctx, examType)
	if err != nil {
		return exam.SessionView{}, err
	}
	if err := sess.Begin(ctx, generated); err != nil {
		return exam.SessionView{}, err
	}
	return sess.View(), nil
}

// CurrentSession returns the candidate's live session view, resuming from a
// snapshot when the process (or the candidate's client) was restarted.
func (s *PortalService) CurrentSession(ctx context.Context, candidate model.Candidate) (exam.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[candidate.ID]; ok {
		return sess.View(), nil
	}

	if view, ok, err := s.resumeLocked(ctx, candidate); err != nil {
		return exam.SessionView{}, err
	} else if ok {
		return view, nil
	}

	return exam.SessionView{}, ErrNoActiveSession
}

// Answer records an option select/deselect for the current question.
func (s *PortalService) Answer(ctx context.Context, candidateID, questionID uuid.UUID, optionIndex int) error {
	sess, ok := s.getSession(candidateID)
	if !ok {
		return ErrNoActiveSession
	}
	return sess.Answer(ctx, questionID, optionIndex)
}

// Next advances the candidate's session (or submits on the last question).
func (s *PortalService) Next(ctx context.Context, candidateID uuid.UUID) (exam.SessionView, error) {
	sess, ok := s.getSession(candidateID)
	if !ok {
		return exam.SessionView{}, ErrNoActiveSession
	}
	if err := sess.Next(ctx); err != nil {
		return sess.View(), err
	}
	return sess.View(), nil
}

// ReportViolation feeds an integrity signal into the session.
func (s *PortalService) ReportViolation(ctx context.Context, candidateID uuid.UUID, kind exam.ViolationKind) (exam.SessionView, error) {
	sess, ok := s.getSession(candidateID)
	if !ok {
		return exam.SessionView{}, ErrNoActiveSession
	}
	if err := sess.ReportViolation(ctx, kind); err != nil {
		return sess.View(), err
	}
	return sess.View(), nil
}

// RetrySubmit re-attempts a failed result persist.
func (s *PortalService) RetrySubmit(ctx context.Context, candidateID uuid.UUID) (exam.SessionView, error) {
	sess, ok := s.getSession(candidateID)
	if !ok {
		return exam.SessionView{}, ErrNoActiveSession
	}
	if err := sess.RetrySubmit(ctx); err != nil {
		return sess.View(), err
	}
	return sess.View(), nil
}

// SessionResult returns the in-memory result of the candidate's latest
// completed session, or nil when none exists.
func (s *PortalService) SessionResult(candidateID uuid.UUID) *model.Result {
	sess, ok := s.getSession(candidateID)
	if !ok {
		return nil
	}
	return sess.Result()
}

// Subscribe attaches a live event stream to the candidate's session.
func (s *PortalService) Subscribe(candidateID uuid.UUID) (<-chan exam.StreamEvent, func(), error) {
	sess, ok := s.getSession(candidateID)
	if !ok {
		return nil, nil, ErrNoActiveSession
	}
	ch, cancel := sess.Subscribe()
	return ch, cancel, nil
}

// Shutdown stops all countdowns. Snapshots keep in-progress sessions
// resumable across the restart.
func (s *PortalService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.Close()
	}
}

// ─── Internals ───────────────────────────────────────────────────────

func (s *PortalService) getSession(candidateID uuid.UUID) (*exam.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[candidateID]
	return sess, ok
}

// resumeLocked tries to rebuild a session from an unexpired snapshot.
// Caller holds s.mu.
func (s *PortalService) resumeLocked(ctx context.Context, candidate model.Candidate) (exam.SessionView, bool, error) {
	snap, err := s.snapshots.Load(ctx, candidate.ID)
	if err != nil {
		return exam.SessionView{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return exam.SessionView{}, false, nil
	}

	sess := exam.NewSession(candidate, snap.ExamType, s.sessionDeps())
	if err := sess.Resume(ctx, snap); err != nil {
		return exam.SessionView{}, false, fmt.Errorf("resume session: %w", err)
	}
	s.sessions[candidate.ID] = sess
	s.log.Info().Str("candidate_id", candidate.ID.String()).Msg("Session recovered from snapshot")
	return sess.View(), true, nil
}

func (s *PortalService) generate(ctx context.Context, examType model.ExamType) (*model.GeneratedExam, error) {
	pool, err := s.catalog.ListQuestions(ctx, examType.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return exam.Generate(examType.ID, pool, examType.QuestionCount)
}

func (s *PortalService) sessionDeps() exam.Deps {
	return exam.Deps{
		Snapshots:    s.snapshots,
		Results:      s.results,
		Notifier:     s.notifier,
		Log:          s.log,
		TickInterval: s.tickInterval,
	}
}

// SetTickInterval overrides the countdown tick interval. Test hook.
func (s *PortalService) SetTickInterval(d time.Duration) {
	s.tickInterval = d
}
