package exam

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/model"
)

// SubmissionLock is the explicit at-most-once guard around result
// persistence. It is acquired before persisting and released only when the
// attempt failed (so the candidate can retry); after a successful persist it
// stays held forever, which makes every later Submit call a no-op.
type SubmissionLock struct {
	flag atomic.Bool
}

// TryAcquire attempts to take the lock. Returns false if it is already held.
func (l *SubmissionLock) TryAcquire() bool {
	return l.flag.CompareAndSwap(false, true)
}

// Release frees the lock after a failed persist so a retry can re-enter.
func (l *SubmissionLock) Release() {
	l.flag.Store(false)
}

// Held reports whether the lock is currently taken.
func (l *SubmissionLock) Held() bool {
	return l.flag.Load()
}

// Scorer computes the final verdict for one session and persists it exactly
// once. A Scorer instance is owned by a single Session.
type Scorer struct {
	results   ResultStore
	snapshots SnapshotStore
	notifier  Notifier
	log       zerolog.Logger

	lock SubmissionLock
	// pending is built once and retained across persist retries so a failed
	// submission never requires re-answering.
	pending *model.Result
}

func newScorer(results ResultStore, snapshots SnapshotStore, notifier Notifier, log zerolog.Logger) *Scorer {
	return &Scorer{
		results:   results,
		snapshots: snapshots,
		notifier:  notifier,
		log:       log.With().Str("component", "scorer").Logger(),
	}
}

// Submit grades the answer map against the generated exam and persists the
// Result. Concurrent or repeated invocations observe the submission lock and
// no-op, returning the already-built result. A persistence failure is
// returned as a retryable error; the graded result is kept in memory.
func (s *Scorer) Submit(ctx context.Context, candidate model.Candidate, examType model.ExamType, exam *model.GeneratedExam, answers model.AnswerMap) (*model.Result, error) {
	if !s.lock.TryAcquire() {
		return s.pending, nil
	}

	if s.pending == nil {
		s.pending = buildResult(candidate, examType, exam, answers)
	}

	id, err := s.results.SaveResult(ctx, s.pending)
	if err != nil {
		s.lock.Release()
		return s.pending, fmt.Errorf("%w: %v", ErrSubmitRetryable, err)
	}
	s.pending.ID = id

	// Best effort: the snapshot is dead either way, and a leftover one
	// expires on its own within the staleness window.
	if err := s.snapshots.Clear(ctx, candidate.ID); err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidate.ID.String()).Msg("Snapshot clear failed after submit")
	}

	passed := s.pending.Passed
	pct := s.pending.Percentage
	s.notifier.Notify(ctx, model.SessionEvent{
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		ExamTypeID:    examType.ID,
		ExamTypeName:  examType.Name,
		Kind:          model.EventKindSubmitted,
		Percentage:    &pct,
		Passed:        &passed,
		OccurredAt:    time.Now(),
	})

	s.log.Info().
		Str("candidate_id", candidate.ID.String()).
		Str("exam_type", examType.Name).
		Int("score", s.pending.Score).
		Float64("percentage", pct).
		Bool("passed", passed).
		Msg("Result persisted")

	return s.pending, nil
}

// Result returns the graded result, or nil if grading has not happened yet.
func (s *Scorer) Result() *model.Result {
	return s.pending
}

func buildResult(candidate model.Candidate, examType model.ExamType, exam *model.GeneratedExam, answers model.AnswerMap) *model.Result {
	total := len(exam.Questions)
	score := grade(exam, answers)

	var pct float64
	if total > 0 {
		pct = 100 * float64(score) / float64(total)
	}

	return &model.Result{
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		ExamTypeID:    examType.ID,
		ExamTypeName:  examType.Name,
		Score:         score,
		TotalCount:    total,
		Percentage:    pct,
		Passed:        pct >= examType.PassingThreshold,
		Answers:       answers.Clone(),
		Exam:          exam,
		SubmittedAt:   time.Now(),
	}
}

// grade counts correctly answered questions. Unanswered questions and the
// no-answer sentinel count as incorrect.
func grade(exam *model.GeneratedExam, answers model.AnswerMap) int {
	score := 0
	for _, q := range exam.Questions {
		ans, ok := answers[q.ID]
		if !ok || ans.NoAnswer {
			continue
		}
		if questionCorrect(q, ans) {
			score++
		}
	}
	return score
}

// questionCorrect applies the correctness rule: single-choice requires the
// one selected index to equal the sole correct index; multi-choice requires
// the selected set to equal the correct set exactly. No partial credit.
func questionCorrect(q model.GeneratedQuestion, ans model.Answer) bool {
	if !q.MultipleChoice {
		return len(ans.Selected) == 1 &&
			len(q.CorrectIndices) == 1 &&
			ans.Selected[0] == q.CorrectIndices[0]
	}

	if len(ans.Selected) != len(q.CorrectIndices) {
		return false
	}
	want := make(map[int]struct{}, len(q.CorrectIndices))
	for _, idx := range q.CorrectIndices {
		want[idx] = struct{}{}
	}
	for _, idx := range ans.Selected {
		if _, ok := want[idx]; !ok {
			return false
		}
	}
	return true
}
