package exam

// StreamEventType labels live events pushed to a connected client.
type StreamEventType string

const (
	StreamTick         StreamEventType = "tick"
	StreamAdvanced     StreamEventType = "advanced"
	StreamGraded       StreamEventType = "graded"
	StreamTerminated   StreamEventType = "terminated"
	StreamSubmitFailed StreamEventType = "submit_failed"
)

// StreamEvent is a live progress update for the exam stream.
type StreamEvent struct {
	Type             StreamEventType `json:"type"`
	Cursor           int             `json:"cursor"`
	RemainingSeconds int             `json:"remaining_seconds,omitempty"`
	Percentage       float64         `json:"percentage,omitempty"`
	Passed           bool            `json:"passed,omitempty"`
	Violation        ViolationKind   `json:"violation,omitempty"`
}

// Subscribe returns a channel of stream events plus a cancel function the
// caller must invoke to avoid leaks. The channel is closed when the session
// completes.
func (s *Session) Subscribe() (<-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, 8)

	s.mu.Lock()
	if s.state == StateCompleted {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(ev StreamEvent) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest update so a slow client never blocks the
			// tick path.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) closeSubscribersLocked() {
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
}
