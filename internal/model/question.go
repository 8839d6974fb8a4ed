package model

import (
	"github.com/google/uuid"
)

// Question is a catalog-owned exam question. Options keep their authored
// order here; shuffling happens per session in the generator.
type Question struct {
	ID             uuid.UUID `json:"id"`
	ExamTypeID     uuid.UUID `json:"exam_type_id"`
	Prompt         string    `json:"prompt"`
	Options        []string  `json:"options"`
	CorrectIndices []int     `json:"correct_indices"`
	MultipleChoice bool      `json:"multiple_choice"`
	// TimeLimitSeconds is the per-question countdown budget.
	TimeLimitSeconds int `json:"time_limit_seconds"`
}
