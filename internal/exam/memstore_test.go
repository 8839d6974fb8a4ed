package exam

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/horizon-rp/department-backend/internal/model"
)

func TestMemSnapshotStoreRoundtrip(t *testing.T) {
	store := NewMemSnapshotStore()
	ctx := context.Background()
	candidateID := uuid.New()

	snap := &model.SessionSnapshot{
		CandidateID:      candidateID,
		Cursor:           3,
		RemainingSeconds: 17,
		SavedAt:          time.Now(),
	}
	if err := store.Save(ctx, candidateID, snap); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Cursor != 3 || got.RemainingSeconds != 17 {
		t.Fatalf("loaded snapshot = %+v", got)
	}
}

func TestMemSnapshotStoreMissing(t *testing.T) {
	store := NewMemSnapshotStore()
	got, err := store.Load(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown candidate, got %+v", got)
	}
}

func TestMemSnapshotStoreClearIdempotent(t *testing.T) {
	store := NewMemSnapshotStore()
	ctx := context.Background()
	candidateID := uuid.New()

	store.Save(ctx, candidateID, &model.SessionSnapshot{SavedAt: time.Now()})
	if err := store.Clear(ctx, candidateID); err != nil {
		t.Fatal(err)
	}
	// Clearing what is already gone is fine.
	if err := store.Clear(ctx, candidateID); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Load(ctx, candidateID)
	if got != nil {
		t.Fatal("snapshot survived clear")
	}
}

func TestMemSnapshotStoreDiscardsStale(t *testing.T) {
	now := time.Now()
	store := NewMemSnapshotStoreWithClock(func() time.Time { return now })
	ctx := context.Background()
	candidateID := uuid.New()

	store.Save(ctx, candidateID, &model.SessionSnapshot{SavedAt: now.Add(-30 * time.Minute)})
	if got, _ := store.Load(ctx, candidateID); got == nil {
		t.Fatal("fresh snapshot discarded")
	}

	store.Save(ctx, candidateID, &model.SessionSnapshot{SavedAt: now.Add(-model.SnapshotMaxAge - time.Minute)})
	if got, _ := store.Load(ctx, candidateID); got != nil {
		t.Fatal("stale snapshot resumed")
	}
	// And it is gone for good, not just skipped.
	if got, _ := store.Load(ctx, candidateID); got != nil {
		t.Fatal("stale snapshot still stored")
	}
}
