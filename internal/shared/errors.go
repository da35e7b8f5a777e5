package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid occurs when a bearer token is missing, unknown or expired.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbiddenAction indicates the actor lacks permission for an operation.
	ErrForbiddenAction = errors.New("action forbidden")
	// ErrValidation indicates a malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
)

// UserSafeMessage maps internal errors to messages that can be shown to users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrTokenInvalid):
		return "Session expired, please sign in again"
	case errors.Is(err, ErrNotFound):
		return "The requested record does not exist"
	case errors.Is(err, ErrDuplicate):
		return "A record with the same identifier already exists"
	default:
		return "Something went wrong, please try again"
	}
}
