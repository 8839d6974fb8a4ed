package exam

import (
	"context"
	"time"

	"github.com/horizon-rp/department-backend/internal/model"
)

// ViolationKind identifies the integrity signal reported by a client
// adapter. The engine never sees platform event APIs, only these kinds.
type ViolationKind string

const (
	ViolationFocusLost      ViolationKind = "focus_lost"
	ViolationVisibilityLost ViolationKind = "visibility_lost"
)

func (k ViolationKind) eventKind() model.EventKind {
	if k == ViolationVisibilityLost {
		return model.EventKindViolationHidden
	}
	return model.EventKindViolationFocus
}

// ReportViolation handles an integrity signal during the question loop.
// The first signal wins; further reports while the violation flag is set
// are ignored. On violation the snapshot is cleared, every unanswered
// question is filled with the no-answer sentinel, the notification sink is
// informed, and the session is forced into submission. The penalty is the
// sentinel fill itself: scoring then naturally reflects the incomplete
// exam, with no separate disqualified flag.
func (s *Session) ReportViolation(ctx context.Context, kind ViolationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.violated {
		return nil
	}
	s.violated = true
	s.countdown.stop()

	if err := s.deps.Snapshots.Clear(ctx, s.candidate.ID); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot clear failed on violation")
	}

	for _, q := range s.exam.Questions {
		if _, ok := s.answers[q.ID]; !ok {
			s.answers[q.ID] = model.NoAnswerSentinel()
		}
	}

	s.deps.Notifier.Notify(ctx, model.SessionEvent{
		CandidateID:   s.candidate.ID,
		CandidateName: s.candidate.Name,
		ExamTypeID:    s.examType.ID,
		ExamTypeName:  s.examType.Name,
		Kind:          kind.eventKind(),
		Detail:        string(kind),
		OccurredAt:    time.Now(),
	})

	s.log.Warn().Str("kind", string(kind)).Int("cursor", s.cursor).Msg("Integrity violation, forcing submission")

	s.broadcastLocked(StreamEvent{Type: StreamTerminated, Cursor: s.cursor, Violation: kind})
	s.state = StateSubmitting
	return s.submitLocked(ctx)
}

// Violated reports whether the one-shot violation flag has been set.
func (s *Session) Violated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violated
}
