package exam

import (
	"context"

	"github.com/google/uuid"

	"github.com/horizon-rp/department-backend/internal/model"
)

// SnapshotStore persists in-progress session snapshots keyed by candidate,
// solely for crash/reload recovery. Save is last-write-wins; Load must
// discard snapshots older than the staleness window and return nil; Clear
// is idempotent.
type SnapshotStore interface {
	Save(ctx context.Context, candidateID uuid.UUID, snap *model.SessionSnapshot) error
	Load(ctx context.Context, candidateID uuid.UUID) (*model.SessionSnapshot, error)
	Clear(ctx context.Context, candidateID uuid.UUID) error
}

// Catalog supplies exam types and their question pools.
type Catalog interface {
	ListExamTypes(ctx context.Context) ([]model.ExamType, error)
	GetExamType(ctx context.Context, examTypeID uuid.UUID) (*model.ExamType, error)
	ListQuestions(ctx context.Context, examTypeID uuid.UUID) ([]model.Question, error)
}

// Authorizer verifies and consumes a one-time exam access token. A consumed
// token must never verify again.
type Authorizer interface {
	VerifyAndConsume(ctx context.Context, token string, candidateID, examTypeID uuid.UUID) error
}

// ResultStore persists final exam results.
type ResultStore interface {
	SaveResult(ctx context.Context, result *model.Result) (uuid.UUID, error)
}

// Notifier is the fire-and-forget notification sink. Implementations must
// never block the caller on delivery failure.
type Notifier interface {
	Notify(ctx context.Context, event model.SessionEvent)
}
