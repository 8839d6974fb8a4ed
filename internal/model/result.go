package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the final outcome of a completed exam session. Created exactly
// once per session; the full answer map and generated exam are retained for
// later review.
type Result struct {
	ID            uuid.UUID      `json:"id"`
	CandidateID   uuid.UUID      `json:"candidate_id"`
	CandidateName string         `json:"candidate_name"`
	ExamTypeID    uuid.UUID      `json:"exam_type_id"`
	ExamTypeName  string         `json:"exam_type_name"`
	Score         int            `json:"score"`
	TotalCount    int            `json:"total_count"`
	Percentage    float64        `json:"percentage"`
	Passed        bool           `json:"passed"`
	Answers       AnswerMap      `json:"answers"`
	Exam          *GeneratedExam `json:"exam"`
	Archived      bool           `json:"archived"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}
