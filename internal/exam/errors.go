package exam

import "errors"

// Engine error taxonomy. Handlers map these onto API error codes.
var (
	// ErrEmptyPool means the catalog has no questions for the requested
	// exam type. Non-retryable; the exam cannot start.
	ErrEmptyPool = errors.New("question pool is empty")

	// ErrAuthorization means the one-time access token was rejected
	// (bad, expired, or already consumed). The candidate may re-enter
	// a different token.
	ErrAuthorization = errors.New("access token rejected")

	// ErrWrongState means the requested operation is not valid in the
	// session's current state.
	ErrWrongState = errors.New("operation not allowed in current session state")

	// ErrAnswerRequired means manual advance was attempted while the
	// current question has no answer.
	ErrAnswerRequired = errors.New("current question has no answer")

	// ErrStaleQuestion means the client addressed a question that is not
	// the current one (late write after an advance).
	ErrStaleQuestion = errors.New("question is not the current question")

	// ErrSubmitRetryable means result persistence failed. The graded
	// result is retained in memory and submission may be retried.
	ErrSubmitRetryable = errors.New("result persistence failed")
)
