package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-rp/department-backend/internal/exam"
)

// AccessTokenRepository implements the one-time exam access token gate
// (exam.Authorizer). Tokens are issued out-of-band by supervisors.
type AccessTokenRepository struct {
	pool *pgxpool.Pool
}

// NewAccessTokenRepository creates a new AccessTokenRepository.
func NewAccessTokenRepository(pool *pgxpool.Pool) *AccessTokenRepository {
	return &AccessTokenRepository{pool: pool}
}

// VerifyAndConsume atomically consumes a token. The conditional UPDATE is
// the single-use guarantee: once consumed_at is set, the same token can
// never verify again, even for concurrent attempts.
func (r *AccessTokenRepository) VerifyAndConsume(ctx context.Context, token string, candidateID, examTypeID uuid.UUID) error {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`UPDATE exam_access_tokens
		 SET consumed_at = NOW()
		 WHERE token = $1
		   AND candidate_id = $2
		   AND exam_type_id = $3
		   AND consumed_at IS NULL
		   AND expires_at > NOW()
		 RETURNING id`,
		token, candidateID, examTypeID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exam.ErrAuthorization
		}
		return fmt.Errorf("consume token: %w", err)
	}
	return nil
}

// Issue creates a new single-use token for a candidate/exam-type pair.
// Used by the seeding command and supervisor tooling.
func (r *AccessTokenRepository) Issue(ctx context.Context, token string, candidateID, examTypeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_access_tokens (token, candidate_id, exam_type_id, expires_at)
		 VALUES ($1, $2, $3, NOW() + INTERVAL '7 days')`,
		token, candidateID, examTypeID,
	)
	return err
}
