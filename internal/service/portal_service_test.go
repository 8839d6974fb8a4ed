package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/exam"
	"github.com/horizon-rp/department-backend/internal/model"
)

type fakeCatalog struct {
	types     map[uuid.UUID]model.ExamType
	questions map[uuid.UUID][]model.Question
}

func (f *fakeCatalog) ListExamTypes(context.Context) ([]model.ExamType, error) {
	out := make([]model.ExamType, 0, len(f.types))
	for _, t := range f.types {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeCatalog) GetExamType(_ context.Context, id uuid.UUID) (*model.ExamType, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, errors.New("exam type not found")
	}
	return &t, nil
}

func (f *fakeCatalog) ListQuestions(_ context.Context, id uuid.UUID) ([]model.Question, error) {
	return f.questions[id], nil
}

type fakeAuthorizer struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeAuthorizer) VerifyAndConsume(context.Context, string, uuid.UUID, uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeAuthorizer) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeResults struct{}

func (fakeResults) SaveResult(context.Context, *model.Result) (uuid.UUID, error) {
	return uuid.New(), nil
}

type fakeNotifier struct{}

func (fakeNotifier) Notify(context.Context, model.SessionEvent) {}

type portalFixture struct {
	svc        *PortalService
	catalog    *fakeCatalog
	authorizer *fakeAuthorizer
	snapshots  *exam.MemSnapshotStore
	examType   model.ExamType
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()

	examType := model.ExamType{
		ID:               uuid.New(),
		Name:             "Patrol Certification",
		PassingThreshold: 75,
		QuestionCount:    2,
		Active:           true,
	}
	pool := make([]model.Question, 4)
	for i := range pool {
		pool[i] = model.Question{
			ID:               uuid.New(),
			ExamTypeID:       examType.ID,
			Prompt:           "prompt",
			Options:          []string{"a", "b", "c"},
			CorrectIndices:   []int{0},
			TimeLimitSeconds: 60,
		}
	}

	f := &portalFixture{
		catalog: &fakeCatalog{
			types:     map[uuid.UUID]model.ExamType{examType.ID: examType},
			questions: map[uuid.UUID][]model.Question{examType.ID: pool},
		},
		authorizer: &fakeAuthorizer{},
		snapshots:  exam.NewMemSnapshotStore(),
		examType:   examType,
	}
	f.svc = NewPortalService(f.catalog, f.authorizer, f.snapshots, fakeResults{}, fakeNotifier{}, zerolog.Nop())
	f.svc.SetTickInterval(time.Hour)
	t.Cleanup(f.svc.Shutdown)
	return f
}

func candidate(privileged bool) model.Candidate {
	return model.Candidate{ID: uuid.New(), Callsign: "B-204", Name: "R. Voss", Privileged: privileged}
}

func TestStartSessionPrivilegedBypassesTokenGate(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartSession(ctx, candidate(true), f.examType.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateInProgress {
		t.Fatalf("state = %s, want IN_PROGRESS without a token", view.State)
	}
	if view.TotalCount != f.examType.QuestionCount {
		t.Fatalf("questions = %d, want %d", view.TotalCount, f.examType.QuestionCount)
	}
	if f.authorizer.calls != 0 {
		t.Fatal("privileged start must not touch the token gate")
	}
}

func TestStartSessionAwaitsAuthorization(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartSession(ctx, candidate(false), f.examType.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateAwaitingAuthorization {
		t.Fatalf("state = %s, want AWAITING_AUTHORIZATION", view.State)
	}
	if view.Question != nil {
		t.Fatal("questions must not be visible before authorization")
	}
}

// A rejected token leaves the session waiting; the candidate can retry with a
// fresh token on the same session.
func TestAuthorizeRejectedTokenLeavesSessionWaiting(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	cand := candidate(false)

	if _, err := f.svc.StartSession(ctx, cand, f.examType.ID); err != nil {
		t.Fatal(err)
	}

	f.authorizer.setErr(exam.ErrAuthorization)
	_, err := f.svc.Authorize(ctx, cand, "already-consumed-token")
	if !errors.Is(err, exam.ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization, got %v", err)
	}

	view, err := f.svc.CurrentSession(ctx, cand)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateAwaitingAuthorization {
		t.Fatalf("state after rejected token = %s, want AWAITING_AUTHORIZATION", view.State)
	}

	f.authorizer.setErr(nil)
	view, err = f.svc.Authorize(ctx, cand, "fresh-token")
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateInProgress {
		t.Fatalf("state after valid token = %s, want IN_PROGRESS", view.State)
	}
}

func TestAuthorizeWithoutSession(t *testing.T) {
	f := newPortalFixture(t)
	_, err := f.svc.Authorize(context.Background(), candidate(false), "token")
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestStartSessionUnknownType(t *testing.T) {
	f := newPortalFixture(t)
	_, err := f.svc.StartSession(context.Background(), candidate(false), uuid.New())
	if !errors.Is(err, ErrExamTypeUnavailable) {
		t.Fatalf("expected ErrExamTypeUnavailable, got %v", err)
	}
}

func TestStartSessionInactiveType(t *testing.T) {
	f := newPortalFixture(t)

	inactive := f.examType
	inactive.ID = uuid.New()
	inactive.Active = false
	f.catalog.types[inactive.ID] = inactive

	_, err := f.svc.StartSession(context.Background(), candidate(false), inactive.ID)
	if !errors.Is(err, ErrExamTypeUnavailable) {
		t.Fatalf("expected ErrExamTypeUnavailable, got %v", err)
	}
}

func TestStartSessionRejoinsLiveSession(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	cand := candidate(true)

	first, err := f.svc.StartSession(ctx, cand, f.examType.ID)
	if err != nil {
		t.Fatal(err)
	}

	// A second start while the session lives returns the same session, it
	// never regenerates the exam.
	second, err := f.svc.StartSession(ctx, cand, f.examType.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.State != exam.StateInProgress {
		t.Fatalf("state = %s", second.State)
	}
	if first.Question == nil || second.Question == nil || first.Question.ID != second.Question.ID {
		t.Fatal("rejoin produced a different exam instance")
	}
}

func TestStartSessionResumesFromSnapshot(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	cand := candidate(false)

	q1 := model.GeneratedQuestion{
		ID: uuid.New(), Prompt: "p1", Options: []string{"a", "b"}, CorrectIndices: []int{0}, TimeLimitSeconds: 60,
	}
	q2 := model.GeneratedQuestion{
		ID: uuid.New(), Prompt: "p2", Options: []string{"a", "b"}, CorrectIndices: []int{1}, TimeLimitSeconds: 60,
	}
	snap := &model.SessionSnapshot{
		CandidateID: cand.ID,
		ExamType:    f.examType,
		Exam: &model.GeneratedExam{
			ExamTypeID: f.examType.ID, Questions: []model.GeneratedQuestion{q1, q2}, GeneratedAt: time.Now(),
		},
		Cursor:           1,
		Answers:          model.AnswerMap{q1.ID: {Selected: []int{0}}},
		RemainingSeconds: 25,
		SavedAt:          time.Now(),
	}
	if err := f.snapshots.Save(ctx, cand.ID, snap); err != nil {
		t.Fatal(err)
	}

	// Recovery takes precedence over a fresh start, even behind the token
	// gate: the token was already consumed for this attempt.
	view, err := f.svc.StartSession(ctx, cand, f.examType.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateInProgress {
		t.Fatalf("state = %s, want resumed IN_PROGRESS", view.State)
	}
	if view.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", view.Cursor)
	}
	if view.RemainingSeconds != 25 {
		t.Fatalf("remaining = %d, want 25", view.RemainingSeconds)
	}
	if f.authorizer.calls != 0 {
		t.Fatal("resume must not consume another token")
	}
}

func TestCurrentSessionResumesFromSnapshot(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	cand := candidate(false)

	q := model.GeneratedQuestion{
		ID: uuid.New(), Prompt: "p", Options: []string{"a", "b"}, CorrectIndices: []int{0}, TimeLimitSeconds: 60,
	}
	snap := &model.SessionSnapshot{
		CandidateID: cand.ID,
		ExamType:    f.examType,
		Exam: &model.GeneratedExam{
			ExamTypeID: f.examType.ID, Questions: []model.GeneratedQuestion{q}, GeneratedAt: time.Now(),
		},
		RemainingSeconds: 40,
		SavedAt:          time.Now(),
	}
	f.snapshots.Save(ctx, cand.ID, snap)

	view, err := f.svc.CurrentSession(ctx, cand)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateInProgress {
		t.Fatalf("state = %s", view.State)
	}
}

func TestCurrentSessionNone(t *testing.T) {
	f := newPortalFixture(t)
	_, err := f.svc.CurrentSession(context.Background(), candidate(false))
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestAnswerAndNextThroughService(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	cand := candidate(true)

	view, err := f.svc.StartSession(ctx, cand, f.examType.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Answer(ctx, cand.ID, view.Question.ID, 0); err != nil {
		t.Fatal(err)
	}
	next, err := f.svc.Next(ctx, cand.ID)
	if err != nil {
		t.Fatal(err)
	}
	if next.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", next.Cursor)
	}
}

func TestViolationThroughService(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	cand := candidate(true)

	if _, err := f.svc.StartSession(ctx, cand, f.examType.ID); err != nil {
		t.Fatal(err)
	}

	view, err := f.svc.ReportViolation(ctx, cand.ID, exam.ViolationFocusLost)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != exam.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED after violation", view.State)
	}
	if !view.Violated {
		t.Fatal("violated flag missing from view")
	}

	result := f.svc.SessionResult(cand.ID)
	if result == nil {
		t.Fatal("result missing after forced submission")
	}
	if result.Score != 0 {
		t.Fatalf("score = %d, want 0", result.Score)
	}
}
