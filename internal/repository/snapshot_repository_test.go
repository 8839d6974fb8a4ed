package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/model"
)

func newTestSnapshotRepo(t *testing.T) (*SnapshotRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSnapshotRepository(rdb, time.Hour), mr
}

func testSnapshot(candidateID uuid.UUID, savedAt time.Time) *model.SessionSnapshot {
	return &model.SessionSnapshot{
		CandidateID:      candidateID,
		ExamType:         model.ExamType{ID: uuid.New(), Name: "Patrol Certification", PassingThreshold: 75},
		Exam: &model.GeneratedExam{
			ExamTypeID: uuid.New(),
			Questions: []model.GeneratedQuestion{{
				ID:               uuid.New(),
				Prompt:           "prompt",
				Options:          []string{"a", "b"},
				CorrectIndices:   []int{0},
				TimeLimitSeconds: 30,
			}},
			GeneratedAt: savedAt,
		},
		Cursor:           0,
		Answers:          model.AnswerMap{},
		RemainingSeconds: 30,
		SavedAt:          savedAt,
	}
}

func TestSnapshotRepositoryRoundtrip(t *testing.T) {
	repo, _ := newTestSnapshotRepo(t)
	ctx := context.Background()
	candidateID := uuid.New()

	snap := testSnapshot(candidateID, time.Now())
	if err := repo.Save(ctx, candidateID, snap); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("snapshot missing after save")
	}
	if got.CandidateID != candidateID || got.RemainingSeconds != 30 {
		t.Fatalf("loaded snapshot = %+v", got)
	}
	if len(got.Exam.Questions) != 1 {
		t.Fatalf("exam questions = %d, want 1", len(got.Exam.Questions))
	}
}

func TestSnapshotRepositoryMissing(t *testing.T) {
	repo, _ := newTestSnapshotRepo(t)
	got, err := repo.Load(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSnapshotRepositoryLastWriteWins(t *testing.T) {
	repo, _ := newTestSnapshotRepo(t)
	ctx := context.Background()
	candidateID := uuid.New()

	first := testSnapshot(candidateID, time.Now())
	first.Cursor = 1
	second := testSnapshot(candidateID, time.Now())
	second.Cursor = 2

	repo.Save(ctx, candidateID, first)
	repo.Save(ctx, candidateID, second)

	got, err := repo.Load(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cursor != 2 {
		t.Fatalf("cursor = %d, want the later write", got.Cursor)
	}
}

func TestSnapshotRepositoryDiscardsStale(t *testing.T) {
	repo, mr := newTestSnapshotRepo(t)
	ctx := context.Background()
	candidateID := uuid.New()

	stale := testSnapshot(candidateID, time.Now().Add(-2*time.Hour))
	if err := repo.Save(ctx, candidateID, stale); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("stale snapshot resumed")
	}
	if mr.Exists(config.CacheKey.ExamSnapshotKey(candidateID.String())) {
		t.Fatal("stale snapshot left in Redis")
	}
}

func TestSnapshotRepositoryDropsCorruptData(t *testing.T) {
	repo, mr := newTestSnapshotRepo(t)
	ctx := context.Background()
	candidateID := uuid.New()

	key := config.CacheKey.ExamSnapshotKey(candidateID.String())
	mr.Set(key, "not json at all")

	got, err := repo.Load(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("corrupt snapshot decoded: %+v", got)
	}
	if mr.Exists(key) {
		t.Fatal("corrupt snapshot left in Redis")
	}
}

func TestSnapshotRepositoryClear(t *testing.T) {
	repo, mr := newTestSnapshotRepo(t)
	ctx := context.Background()
	candidateID := uuid.New()

	repo.Save(ctx, candidateID, testSnapshot(candidateID, time.Now()))
	if err := repo.Clear(ctx, candidateID); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(config.CacheKey.ExamSnapshotKey(candidateID.String())) {
		t.Fatal("snapshot survived clear")
	}
	// Idempotent on a missing key.
	if err := repo.Clear(ctx, candidateID); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotRepositorySetsTTL(t *testing.T) {
	repo, mr := newTestSnapshotRepo(t)
	ctx := context.Background()
	candidateID := uuid.New()

	repo.Save(ctx, candidateID, testSnapshot(candidateID, time.Now()))

	key := config.CacheKey.ExamSnapshotKey(candidateID.String())
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("snapshot TTL = %v, want (0, 1h]", ttl)
	}

	// Redis expiry alone removes abandoned sessions.
	mr.FastForward(2 * time.Hour)
	if mr.Exists(key) {
		t.Fatal("snapshot survived TTL expiry")
	}
}
