package websocket

import (
	"github.com/google/uuid"

	"github.com/horizon-rp/department-backend/internal/exam"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer    Action = "answer"
	ActionNext      Action = "next"
	ActionViolation Action = "violation"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape; unused fields stay
// zero for actions that do not need them.
type RequestPayload struct {
	Action      Action    `json:"action"`
	QuestionID  uuid.UUID `json:"question_id,omitempty"`
	OptionIndex int       `json:"option_index,omitempty"`
	Kind        string    `json:"kind,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventState  Event = "state"
	EventStream Event = "stream"
	EventPong   Event = "pong"
)

// StateResponse carries a full session view (sent on connect and after
// client actions).
type StateResponse struct {
	Event Event            `json:"event"`
	State exam.SessionView `json:"state"`
}

// StreamResponse wraps a live engine event (tick, advanced, graded,
// terminated, submit_failed).
type StreamResponse struct {
	Event  Event            `json:"event"`
	Update exam.StreamEvent `json:"update"`
}

// ErrorResponse reports a rejected action.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Event Event `json:"event"`
}
