package model

import (
	"github.com/google/uuid"
)

// Answer is a candidate's response to one generated question. The zero-value
// rules are: a real selection carries Selected indices; the "no answer"
// sentinel (timeout or forced termination) carries NoAnswer=true and is
// always scored incorrect.
type Answer struct {
	Selected []int `json:"selected,omitempty"`
	NoAnswer bool  `json:"no_answer,omitempty"`
}

// NoAnswerSentinel returns the sentinel answer injected on timeout and on
// integrity-violation penalty fill.
func NoAnswerSentinel() Answer {
	return Answer{NoAnswer: true}
}

// Contains reports whether idx is part of the selection.
func (a Answer) Contains(idx int) bool {
	for _, s := range a.Selected {
		if s == idx {
			return true
		}
	}
	return false
}

// AnswerMap maps generated question IDs to the candidate's answers.
type AnswerMap map[uuid.UUID]Answer

// Clone returns a deep copy so snapshots and results never alias the
// session's live map.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for qid, ans := range m {
		cp := ans
		if ans.Selected != nil {
			cp.Selected = append([]int(nil), ans.Selected...)
		}
		out[qid] = cp
	}
	return out
}
