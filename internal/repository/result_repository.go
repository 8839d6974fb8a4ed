package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-rp/department-backend/internal/model"
)

// ResultRepository persists and lists final exam results
// (implements exam.ResultStore on the write side).
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveResult inserts a completed result. The full answer map and generated
// exam are stored as jsonb for the review screens.
func (r *ResultRepository) SaveResult(ctx context.Context, result *model.Result) (uuid.UUID, error) {
	answersRaw, err := json.Marshal(result.Answers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode answers: %w", err)
	}
	examRaw, err := json.Marshal(result.Exam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode exam: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx,
		`INSERT INTO exam_results
		   (candidate_id, candidate_name, exam_type_id, exam_type_name,
		    score, total_count, percentage, passed, answers, exam, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		result.CandidateID, result.CandidateName, result.ExamTypeID, result.ExamTypeName,
		result.Score, result.TotalCount, result.Percentage, result.Passed,
		answersRaw, examRaw, result.SubmittedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetLatestByCandidate returns the candidate's most recent result, without
// the heavyweight jsonb columns.
func (r *ResultRepository) GetLatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, candidate_name, exam_type_id, exam_type_name,
		        score, total_count, percentage, passed, archived, submitted_at
		 FROM exam_results
		 WHERE candidate_id = $1
		 ORDER BY submitted_at DESC
		 LIMIT 1`, candidateID,
	).Scan(&res.ID, &res.CandidateID, &res.CandidateName, &res.ExamTypeID, &res.ExamTypeName,
		&res.Score, &res.TotalCount, &res.Percentage, &res.Passed, &res.Archived, &res.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ResultRow is the archive listing projection.
type ResultRow struct {
	ID            uuid.UUID `json:"id"`
	CandidateID   uuid.UUID `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	ExamTypeName  string    `json:"exam_type_name"`
	Percentage    float64   `json:"percentage"`
	Passed        bool      `json:"passed"`
	Archived      bool      `json:"archived"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ListResults returns paginated results for the examiner archive, optionally
// filtered by exam type and archived flag.
func (r *ResultRepository) ListResults(ctx context.Context, page, perPage int, examTypeID *uuid.UUID, archived *bool) ([]ResultRow, int64, error) {
	offset := (page - 1) * perPage

	baseQuery := ` FROM exam_results WHERE 1=1`
	args := []any{}

	if examTypeID != nil {
		args = append(args, *examTypeID)
		baseQuery += fmt.Sprintf(" AND exam_type_id = $%d", len(args))
	}
	if archived != nil {
		args = append(args, *archived)
		baseQuery += fmt.Sprintf(" AND archived = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, candidate_id, candidate_name, exam_type_name, percentage, passed, archived, submitted_at` +
		baseQuery +
		fmt.Sprintf(" ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []ResultRow
	for rows.Next() {
		var row ResultRow
		if err := rows.Scan(&row.ID, &row.CandidateID, &row.CandidateName, &row.ExamTypeName,
			&row.Percentage, &row.Passed, &row.Archived, &row.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}

// SetArchived flips the archived flag on a result.
func (r *ResultRepository) SetArchived(ctx context.Context, resultID uuid.UUID, archived bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_results SET archived = $1 WHERE id = $2`,
		archived, resultID)
	return err
}
