package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/horizon-rp/department-backend/internal/model"
)

// MemSnapshotStore is an in-memory SnapshotStore used in tests and as a
// fallback when no Redis is configured.
type MemSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]*model.SessionSnapshot
	now       func() time.Time
}

func NewMemSnapshotStore() *MemSnapshotStore {
	return &MemSnapshotStore{
		snapshots: make(map[uuid.UUID]*model.SessionSnapshot),
		now:       time.Now,
	}
}

// NewMemSnapshotStoreWithClock allows deterministic expiry in tests.
func NewMemSnapshotStoreWithClock(now func() time.Time) *MemSnapshotStore {
	s := NewMemSnapshotStore()
	s.now = now
	return s
}

func (s *MemSnapshotStore) Save(_ context.Context, candidateID uuid.UUID, snap *model.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[candidateID] = snap
	return nil
}

// Load returns the stored snapshot, or nil when none exists or the stored
// one is past the staleness window (stale snapshots are discarded, never
// resumed).
func (s *MemSnapshotStore) Load(_ context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[candidateID]
	if !ok {
		return nil, nil
	}
	if snap.Expired(s.now()) {
		delete(s.snapshots, candidateID)
		return nil, nil
	}
	return snap, nil
}

func (s *MemSnapshotStore) Clear(_ context.Context, candidateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, candidateID)
	return nil
}
