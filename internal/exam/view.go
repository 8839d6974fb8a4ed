package exam

import (
	"github.com/google/uuid"

	"github.com/horizon-rp/department-backend/internal/model"
)

// QuestionView is the client-facing shape of the current question. Correct
// indices are stripped.
type QuestionView struct {
	ID               uuid.UUID `json:"id"`
	Prompt           string    `json:"prompt"`
	Options          []string  `json:"options"`
	MultipleChoice   bool      `json:"multiple_choice"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
}

// SessionView is the reloadable client state: where the candidate is, what
// they answered, and how much time is left on the current question.
type SessionView struct {
	State            State               `json:"state"`
	ExamTypeID       uuid.UUID           `json:"exam_type_id"`
	ExamTypeName     string              `json:"exam_type_name"`
	Cursor           int                 `json:"cursor"`
	TotalCount       int                 `json:"total_count"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	Question         *QuestionView       `json:"question,omitempty"`
	Answers          map[uuid.UUID][]int `json:"answers"`
	Violated         bool                `json:"violated"`
}

// View captures the current session state for the client.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		State:        s.state,
		ExamTypeID:   s.examType.ID,
		ExamTypeName: s.examType.Name,
		Cursor:       s.cursor,
		Violated:     s.violated,
		Answers:      make(map[uuid.UUID][]int),
	}

	if s.exam == nil {
		return view
	}

	view.TotalCount = len(s.exam.Questions)
	view.RemainingSeconds = s.remaining
	for qid, ans := range s.answers {
		if ans.NoAnswer {
			continue
		}
		view.Answers[qid] = append([]int(nil), ans.Selected...)
	}

	if s.state == StateInProgress {
		q := s.exam.Questions[s.cursor]
		view.Question = &QuestionView{
			ID:               q.ID,
			Prompt:           q.Prompt,
			Options:          append([]string(nil), q.Options...),
			MultipleChoice:   q.MultipleChoice,
			TimeLimitSeconds: q.TimeLimitSeconds,
		}
	}

	return view
}

// ResultView is the candidate-facing verdict; the full answer review stays
// server-side for the archive screens.
type ResultView struct {
	ID           uuid.UUID `json:"id"`
	ExamTypeName string    `json:"exam_type_name"`
	Score        int       `json:"score"`
	TotalCount   int       `json:"total_count"`
	Percentage   float64   `json:"percentage"`
	Passed       bool      `json:"passed"`
}

// NewResultView projects a Result for the candidate.
func NewResultView(r *model.Result) ResultView {
	return ResultView{
		ID:           r.ID,
		ExamTypeName: r.ExamTypeName,
		Score:        r.Score,
		TotalCount:   r.TotalCount,
		Percentage:   r.Percentage,
		Passed:       r.Passed,
	}
}
