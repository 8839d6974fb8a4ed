package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-rp/department-backend/internal/model"
)

// CatalogRepository reads exam types and question pools. The exam engine
// consumes it through the exam.Catalog interface.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListExamTypes returns all active exam types, ordered by name.
func (r *CatalogRepository) ListExamTypes(ctx context.Context) ([]model.ExamType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, passing_threshold, question_count, active, created_at
		 FROM exam_types
		 WHERE active = TRUE
		 ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []model.ExamType
	for rows.Next() {
		var t model.ExamType
		if err := rows.Scan(&t.ID, &t.Name, &t.PassingThreshold, &t.QuestionCount, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GetExamType retrieves a single exam type by ID.
func (r *CatalogRepository) GetExamType(ctx context.Context, examTypeID uuid.UUID) (*model.ExamType, error) {
	t := &model.ExamType{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, passing_threshold, question_count, active, created_at
		 FROM exam_types
		 WHERE id = $1`, examTypeID,
	).Scan(&t.ID, &t.Name, &t.PassingThreshold, &t.QuestionCount, &t.Active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListQuestions returns the full question pool for an exam type. Options and
// correct indices are stored as jsonb.
func (r *CatalogRepository) ListQuestions(ctx context.Context, examTypeID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_type_id, prompt, options, correct_indices, multiple_choice, time_limit_seconds
		 FROM questions
		 WHERE exam_type_id = $1
		 ORDER BY created_at ASC`, examTypeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var optionsRaw, correctRaw []byte
		if err := rows.Scan(&q.ID, &q.ExamTypeID, &q.Prompt, &optionsRaw, &correctRaw, &q.MultipleChoice, &q.TimeLimitSeconds); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(correctRaw, &q.CorrectIndices); err != nil {
			return nil, fmt.Errorf("decode correct indices for question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// IsNotFound reports whether err is the pgx no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
