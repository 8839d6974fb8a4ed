package model

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedQuestion is a question as presented inside one session: the option
// order is randomized per session and CorrectIndices are remapped so they
// still point at the same option texts as the authored question.
type GeneratedQuestion struct {
	ID               uuid.UUID `json:"id"`
	Prompt           string    `json:"prompt"`
	Options          []string  `json:"options"`
	CorrectIndices   []int     `json:"correct_indices"`
	MultipleChoice   bool      `json:"multiple_choice"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
}

// GeneratedExam is a session-scoped randomized exam instance. It is never
// persisted on its own; it lives inside the session snapshot while the
// session is in progress and inside the Result afterwards.
type GeneratedExam struct {
	ExamTypeID  uuid.UUID           `json:"exam_type_id"`
	Questions   []GeneratedQuestion `json:"questions"`
	GeneratedAt time.Time           `json:"generated_at"`
}
