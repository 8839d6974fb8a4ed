package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-rp/department-backend/internal/model"
)

// CandidateRepository handles candidate account data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// GetByCallsign retrieves a candidate by their department callsign.
func (r *CandidateRepository) GetByCallsign(ctx context.Context, callsign string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, callsign, name, password_hash, privileged, created_at
		 FROM candidates
		 WHERE callsign = $1`, callsign,
	).Scan(&c.ID, &c.Callsign, &c.Name, &c.PasswordHash, &c.Privileged, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, callsign, name, password_hash, privileged, created_at
		 FROM candidates
		 WHERE id = $1`, id,
	).Scan(&c.ID, &c.Callsign, &c.Name, &c.PasswordHash, &c.Privileged, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new candidate account.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO candidates (callsign, name, password_hash, privileged)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.Callsign, c.Name, c.PasswordHash, c.Privileged,
	).Scan(&c.ID, &c.CreatedAt)
}
