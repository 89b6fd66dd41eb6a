package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownEntity indicates a CRUD request for an unregistered entity.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrMissingID indicates an update/delete payload without an id.
	ErrMissingID = errors.New("id required")
	// ErrUnsupportedAction indicates an action outside create/update/delete/find.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrUnauthorized indicates a request without a signed-in user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a signed-in user without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrBanned indicates a sign-in attempt by a banned user.
	ErrBanned = errors.New("account banned")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrTokenExpired indicates a verification token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrDeletePending indicates a delete request while another one is still counting down.
	ErrDeletePending = errors.New("another delete is pending")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to a message safe to show end users.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrBanned):
		return "This account has been suspended"
	case errors.Is(err, ErrDuplicate):
		return "An account with this email already exists"
	case errors.Is(err, ErrTokenExpired):
		return "This link has expired, please request a new one"
	case errors.Is(err, ErrDeletePending):
		return "Another delete is still pending, undo or wait for it first"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Something went wrong, please try again"
	}
}
