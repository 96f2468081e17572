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
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden             ErrCode = "FORBIDDEN"
	ErrParticipantAccessOnly ErrCode = "PARTICIPANT_ACCESS_ONLY"
	ErrOrganizerAccessOnly   ErrCode = "ORGANIZER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizNotStarted    ErrCode = "QUIZ_NOT_STARTED"
	ErrQuizEnded         ErrCode = "QUIZ_ENDED"
	ErrQuizNotConfigured ErrCode = "QUIZ_NOT_CONFIGURED"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrAttemptExhausted  ErrCode = "ATTEMPT_EXHAUSTED"
	ErrAlreadySubmitted  ErrCode = "ALREADY_SUBMITTED"
	ErrInvalidEntryToken ErrCode = "INVALID_ENTRY_TOKEN"
	ErrNotQuizAuthor     ErrCode = "NOT_QUIZ_AUTHOR"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrAlreadyGraded     ErrCode = "ALREADY_GRADED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email/enrollment number or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrParticipantAccessOnly:
		return "This resource is restricted to participants."
	case ErrOrganizerAccessOnly:
		return "This resource is restricted to organizers."

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
		return "The resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizNotStarted:
		return "This quiz has not started yet."
	case ErrQuizEnded:
		return "This quiz has already ended."
	case ErrQuizNotConfigured:
		return "This quiz has no schedule configured yet."
	case ErrNotEnrolled:
		return "You are not enrolled in this quiz."
	case ErrAttemptExhausted:
		return "Your attempt for this quiz has already been used."
	case ErrAlreadySubmitted:
		return "This attempt has already been submitted."
	case ErrInvalidEntryToken:
		return "The quiz entry token is invalid."
	case ErrNotQuizAuthor:
		return "You are not the author of this quiz."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrAlreadyGraded:
		return "This submission has already been graded."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred. Please try again later."
	}
	return "An unknown error occurred."
}
