package exam

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/model"
)

// stubResultStore counts persists and can be flipped into failure mode.
type stubResultStore struct {
	mu    sync.Mutex
	saves int
	fail  bool
	last  *model.Result
}

func (s *stubResultStore) SaveResult(_ context.Context, result *model.Result) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return uuid.Nil, errors.New("database unavailable")
	}
	s.saves++
	s.last = result
	return uuid.New(), nil
}

func (s *stubResultStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *stubResultStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// stubNotifier records events for assertions.
type stubNotifier struct {
	mu     sync.Mutex
	events []model.SessionEvent
}

func (n *stubNotifier) Notify(_ context.Context, ev model.SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *stubNotifier) kinds() []model.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.EventKind, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

func testCandidate() model.Candidate {
	return model.Candidate{ID: uuid.New(), Callsign: "A-113", Name: "J. Mercer"}
}

func testExamType(threshold float64) model.ExamType {
	return model.ExamType{ID: uuid.New(), Name: "Patrol Certification", PassingThreshold: threshold, Active: true}
}

// singleChoice builds a generated single-choice question with correct index 0.
func singleChoice(limit int) model.GeneratedQuestion {
	return model.GeneratedQuestion{
		ID:               uuid.New(),
		Prompt:           "prompt",
		Options:          []string{"right", "wrong", "wrong"},
		CorrectIndices:   []int{0},
		TimeLimitSeconds: limit,
	}
}

func multiChoice(limit int, correct []int) model.GeneratedQuestion {
	return model.GeneratedQuestion{
		ID:               uuid.New(),
		Prompt:           "prompt",
		Options:          []string{"a", "b", "c", "d"},
		CorrectIndices:   correct,
		MultipleChoice:   true,
		TimeLimitSeconds: limit,
	}
}

func generatedExam(questions ...model.GeneratedQuestion) *model.GeneratedExam {
	return &model.GeneratedExam{
		ExamTypeID:  uuid.New(),
		Questions:   questions,
		GeneratedAt: time.Now(),
	}
}

func newTestScorer(store *stubResultStore) *Scorer {
	return newScorer(store, NewMemSnapshotStore(), &stubNotifier{}, zerolog.Nop())
}

func TestScoringPassAtExactThreshold(t *testing.T) {
	// 2 of 4 correct with a 50% threshold: the boundary counts as a pass.
	q1, q2, q3, q4 := singleChoice(30), singleChoice(30), singleChoice(30), singleChoice(30)
	exam := generatedExam(q1, q2, q3, q4)
	answers := model.AnswerMap{
		q1.ID: {Selected: []int{0}},
		q2.ID: {Selected: []int{0}},
		q3.ID: {Selected: []int{1}},
		q4.ID: model.NoAnswerSentinel(),
	}

	store := &stubResultStore{}
	result, err := newTestScorer(store).Submit(context.Background(), testCandidate(), testExamType(50), exam, answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 2 || result.TotalCount != 4 {
		t.Fatalf("score = %d/%d, want 2/4", result.Score, result.TotalCount)
	}
	if result.Percentage != 50 {
		t.Fatalf("percentage = %v, want 50", result.Percentage)
	}
	if !result.Passed {
		t.Fatal("50% against a 50% threshold must pass")
	}
}

func TestScoringFailBelowThreshold(t *testing.T) {
	// 7 of 10 correct against a 75% threshold fails.
	questions := make([]model.GeneratedQuestion, 10)
	answers := make(model.AnswerMap)
	for i := range questions {
		questions[i] = singleChoice(30)
		if i < 7 {
			answers[questions[i].ID] = model.Answer{Selected: []int{0}}
		} else {
			answers[questions[i].ID] = model.Answer{Selected: []int{1}}
		}
	}

	store := &stubResultStore{}
	result, err := newTestScorer(store).Submit(context.Background(), testCandidate(), testExamType(75), generatedExam(questions...), answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 7 {
		t.Fatalf("score = %d, want 7", result.Score)
	}
	if result.Percentage != 70 {
		t.Fatalf("percentage = %v, want 70", result.Percentage)
	}
	if result.Passed {
		t.Fatal("70% against a 75% threshold must fail")
	}
}

func TestMultiChoiceExactSetOnly(t *testing.T) {
	q := multiChoice(30, []int{0, 2})

	cases := []struct {
		name     string
		selected []int
		want     bool
	}{
		{"exact set", []int{0, 2}, true},
		{"exact set reordered", []int{2, 0}, true},
		{"subset", []int{0}, false},
		{"superset", []int{0, 1, 2}, false},
		{"disjoint", []int{1, 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := questionCorrect(q, model.Answer{Selected: tc.selected})
			if got != tc.want {
				t.Errorf("questionCorrect(%v) = %v, want %v", tc.selected, got, tc.want)
			}
		})
	}
}

func TestSentinelAndMissingScoreIncorrect(t *testing.T) {
	q1, q2 := singleChoice(30), singleChoice(30)
	exam := generatedExam(q1, q2)

	// q1 carries the sentinel, q2 has no entry at all.
	score := grade(exam, model.AnswerMap{q1.ID: model.NoAnswerSentinel()})
	if score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
}

func TestSubmitAtMostOnce(t *testing.T) {
	q := singleChoice(30)
	exam := generatedExam(q)
	answers := model.AnswerMap{q.ID: {Selected: []int{0}}}

	store := &stubResultStore{}
	scorer := newTestScorer(store)

	first, err := scorer.Submit(context.Background(), testCandidate(), testExamType(50), exam, answers)
	if err != nil {
		t.Fatal(err)
	}
	second, err := scorer.Submit(context.Background(), testCandidate(), testExamType(50), exam, answers)
	if err != nil {
		t.Fatal(err)
	}

	if store.saveCount() != 1 {
		t.Fatalf("result persisted %d times, want exactly 1", store.saveCount())
	}
	if first != second {
		t.Fatal("repeated submit must return the same result instance")
	}
	if !scorer.lock.Held() {
		t.Fatal("lock must stay held after a successful persist")
	}
}

func TestSubmitRetryAfterPersistFailure(t *testing.T) {
	q := singleChoice(30)
	exam := generatedExam(q)
	answers := model.AnswerMap{q.ID: {Selected: []int{0}}}

	store := &stubResultStore{fail: true}
	scorer := newTestScorer(store)

	_, err := scorer.Submit(context.Background(), testCandidate(), testExamType(50), exam, answers)
	if !errors.Is(err, ErrSubmitRetryable) {
		t.Fatalf("expected ErrSubmitRetryable, got %v", err)
	}
	if scorer.lock.Held() {
		t.Fatal("lock must be released after a failed persist")
	}
	if scorer.Result() == nil {
		t.Fatal("graded result must be retained across the failure")
	}

	store.setFail(false)
	result, err := scorer.Submit(context.Background(), testCandidate(), testExamType(50), exam, answers)
	if err != nil {
		t.Fatal(err)
	}
	if store.saveCount() != 1 {
		t.Fatalf("result persisted %d times, want 1", store.saveCount())
	}
	if !result.Passed {
		t.Fatal("retry must carry the originally graded verdict")
	}
}

func TestSubmitNotifiesVerdict(t *testing.T) {
	q := singleChoice(30)
	exam := generatedExam(q)
	answers := model.AnswerMap{q.ID: {Selected: []int{0}}}

	store := &stubResultStore{}
	sink := &stubNotifier{}
	scorer := newScorer(store, NewMemSnapshotStore(), sink, zerolog.Nop())

	if _, err := scorer.Submit(context.Background(), testCandidate(), testExamType(50), exam, answers); err != nil {
		t.Fatal(err)
	}

	kinds := sink.kinds()
	if len(kinds) != 1 || kinds[0] != model.EventKindSubmitted {
		t.Fatalf("notified kinds = %v, want [SUBMITTED]", kinds)
	}
}
