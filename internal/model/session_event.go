package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind labels outbound notifications from the exam engine.
type EventKind string

const (
	EventKindSubmitted       EventKind = "SUBMITTED"
	EventKindViolationFocus  EventKind = "VIOLATION_FOCUS_LOST"
	EventKindViolationHidden EventKind = "VIOLATION_VISIBILITY_LOST"
)

// SessionEvent is the fire-and-forget notification payload handed to the
// notification sink. Delivery failures never block the exam flow.
type SessionEvent struct {
	CandidateID   uuid.UUID `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	ExamTypeID    uuid.UUID `json:"exam_type_id"`
	ExamTypeName  string    `json:"exam_type_name"`
	Kind          EventKind `json:"kind"`
	Detail        string    `json:"detail,omitempty"`
	Percentage    *float64  `json:"percentage,omitempty"`
	Passed        *bool     `json:"passed,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
