package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType describes a selectable exam category (trainee knowledge test,
// SWAT qualification, detective exam, ...). Owned by the catalog; immutable
// for the duration of a session.
type ExamType struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	// PassingThreshold is the minimum percentage required to pass.
	// Varies per category (e.g. 50 for trainee exams, 75 for SWAT).
	PassingThreshold float64 `json:"passing_threshold"`
	// QuestionCount is how many questions are sampled from the pool
	// for a single generated exam.
	QuestionCount int       `json:"question_count"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}
