package model

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotMaxAge is the staleness window for session snapshots. Anything
// older is discarded on load instead of being resumed.
const SnapshotMaxAge = time.Hour

// SessionSnapshot is the recovery record for an in-progress session. It is
// overwritten after every state mutation and deleted on completion, forced
// termination, or expiry.
type SessionSnapshot struct {
	CandidateID      uuid.UUID      `json:"candidate_id"`
	ExamType         ExamType       `json:"exam_type"`
	Exam             *GeneratedExam `json:"exam"`
	Cursor           int            `json:"cursor"`
	Answers          AnswerMap      `json:"answers"`
	RemainingSeconds int            `json:"remaining_seconds"`
	SavedAt          time.Time      `json:"saved_at"`
}

// Expired reports whether the snapshot is older than the staleness window.
func (s *SessionSnapshot) Expired(now time.Time) bool {
	return now.Sub(s.SavedAt) > SnapshotMaxAge
}
