package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrInvalidGoogleToken ErrCode = "INVALID_GOOGLE_TOKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrBadRequest     ErrCode = "BAD_REQUEST"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz ──────────────────────────────────────────────────────────
	ErrTopicNotAllowed ErrCode = "TOPIC_NOT_ALLOWED"
	ErrQuizFormat      ErrCode = "QUIZ_FORMAT_ERROR"
	ErrQuizNotFound    ErrCode = "QUIZ_NOT_FOUND"

	// ─── Payment ───────────────────────────────────────────────────────
	ErrPaymentGateway ErrCode = "PAYMENT_GATEWAY_ERROR"

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
		return "Invalid email/password"
	case ErrTokenRequired:
		return "Invalid Token"
	case ErrTokenInvalid:
		return "Unauthorized Error"
	case ErrInvalidGoogleToken:
		return "Invalid Google token"

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You don't have permission to access this resource"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrBadRequest:
		return "Bad request"
	case ErrInvalidID:
		return "Invalid ID format"
	case ErrInvalidPayload:
		return "Invalid request payload"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found"
	case ErrConflict:
		return "Resource already exists"

	// ─── Quiz ──────────────────────────────────────────────────────────
	case ErrTopicNotAllowed:
		return "Sorry, quizzes can only be generated for programming-related topics."
	case ErrQuizFormat:
		return "Failed to generate a properly formatted quiz. Please try again."
	case ErrQuizNotFound:
		return "Quiz not found. It may have expired."

	// ─── Payment ───────────────────────────────────────────────────────
	case ErrPaymentGateway:
		return "Failed to create payment transaction"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error"
	default:
		return "An unexpected error occurred"
	}
}
