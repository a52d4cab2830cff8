package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionRequired occurs when an endpoint needs an authenticated session.
	ErrSessionRequired = errors.New("session required")
)

// UserSafeMessage converts internal errors to a message safe to show users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect."
	case errors.Is(err, ErrSessionRequired):
		return "Your session has expired. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
