package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/model"
)

// SnapshotRepository is the Redis-backed exam.SnapshotStore. Snapshots are
// JSON blobs keyed by candidate with a TTL matching the staleness window, so
// Redis garbage-collects abandoned sessions on its own; the timestamp check
// on Load covers clock drift and custom TTL configs.
type SnapshotRepository struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(rdb *redis.Client, ttl time.Duration) *SnapshotRepository {
	if ttl <= 0 {
		ttl = model.SnapshotMaxAge
	}
	return &SnapshotRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

// Save overwrites the candidate's snapshot. Last write wins.
func (r *SnapshotRepository) Save(ctx context.Context, candidateID uuid.UUID, snap *model.SessionSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := config.CacheKey.ExamSnapshotKey(candidateID.String())
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot or nil when there is none. A snapshot
// older than the staleness window is deleted and treated as absent.
func (r *SnapshotRepository) Load(ctx context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error) {
	key := config.CacheKey.ExamSnapshotKey(candidateID.String())

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.SessionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt snapshot is unrecoverable. Drop it rather than wedge
		// the candidate's next session start.
		_ = r.rdb.Del(ctx, key).Err()
		return nil, nil
	}

	if snap.Expired(r.now()) {
		_ = r.rdb.Del(ctx, key).Err()
		return nil, nil
	}

	return &snap, nil
}

// Clear deletes the snapshot. Safe to call when none exists.
func (r *SnapshotRepository) Clear(ctx context.Context, candidateID uuid.UUID) error {
	key := config.CacheKey.ExamSnapshotKey(candidateID.String())
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
