package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden     ErrCode = "FORBIDDEN"
	ErrCommandOnly   ErrCode = "COMMAND_STAFF_ONLY"
	ErrActionBlocked ErrCode = "ACTION_FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam engine ───────────────────────────────────────────────────
	ErrExamTypeUnavailable ErrCode = "EXAM_TYPE_UNAVAILABLE"
	ErrNoQuestions         ErrCode = "NO_QUESTIONS"
	ErrAccessTokenRejected ErrCode = "ACCESS_TOKEN_REJECTED"
	ErrNoActiveSession     ErrCode = "NO_ACTIVE_SESSION"
	ErrWrongSessionState   ErrCode = "WRONG_SESSION_STATE"
	ErrAnswerRequired      ErrCode = "ANSWER_REQUIRED"
	ErrStaleQuestion       ErrCode = "STALE_QUESTION"
	ErrSubmitFailed        ErrCode = "SUBMIT_FAILED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Callsign or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCommandOnly:
		return "This resource is restricted to command staff."
	case ErrActionBlocked:
		return "This action is not allowed."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam engine ───────────────────────────────────────────────────
	case ErrExamTypeUnavailable:
		return "This exam type is currently not available."
	case ErrNoQuestions:
		return "This exam has no questions. The exam cannot start."
	case ErrAccessTokenRejected:
		return "The exam access token is invalid or was already used."
	case ErrNoActiveSession:
		return "You have no active exam session."
	case ErrWrongSessionState:
		return "This action is not allowed in the current exam state."
	case ErrAnswerRequired:
		return "Answer the current question before continuing."
	case ErrStaleQuestion:
		return "This question is no longer the current question."
	case ErrSubmitFailed:
		return "Your result could not be saved. Your answers are safe, please retry."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
