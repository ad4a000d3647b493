package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session engine ────────────────────────────────────────────────
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"
	ErrSessionFinished  ErrCode = "SESSION_FINISHED"
	ErrInvalidPhase     ErrCode = "INVALID_PHASE"
	ErrAnswerNotOpen    ErrCode = "ANSWER_NOT_OPEN"
	ErrTestNotAvailable ErrCode = "TEST_NOT_AVAILABLE"

	// ─── Mock attempt ──────────────────────────────────────────────────
	ErrUnknownSkill     ErrCode = "UNKNOWN_SKILL"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrFinalizeNotReady ErrCode = "FINALIZE_NOT_READY"
	ErrFinalizeFailed   ErrCode = "FINALIZE_FAILED"
	ErrAttemptScored    ErrCode = "ATTEMPT_ALREADY_SCORED"

	// ─── Writing evaluation ────────────────────────────────────────────
	ErrOracleUnavailable ErrCode = "ORACLE_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Session engine ────────────────────────────────────────────────
	case ErrSessionNotFound:
		return "No active session was found. It may have ended or been abandoned."
	case ErrSessionFinished:
		return "This session has already been submitted."
	case ErrInvalidPhase:
		return "That action is not available in the current test phase."
	case ErrAnswerNotOpen:
		return "Answers cannot be recorded before the test begins."
	case ErrTestNotAvailable:
		return "This test is not currently available."

	// ─── Mock attempt ──────────────────────────────────────────────────
	case ErrUnknownSkill:
		return "The requested skill is not recognized."
	case ErrAlreadySubmitted:
		return "This skill has already been submitted and cannot be restarted."
	case ErrFinalizeNotReady:
		return "Complete at least one skill before finalizing the attempt."
	case ErrFinalizeFailed:
		return "Finalizing the attempt failed. Your progress is unchanged; please confirm again."
	case ErrAttemptScored:
		return "This attempt has already been finalized and scored."

	// ─── Writing evaluation ────────────────────────────────────────────
	case ErrOracleUnavailable:
		return "The writing evaluation service is unavailable. Please try again shortly."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
