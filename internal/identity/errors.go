package identity

import "errors"

// Error is an identity-provider failure with a stable code callers can
// switch on, e.g. to show a specific message for a taken email.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrEmailInUse         = &Error{Code: "auth/email-already-in-use", Message: "email already registered"}
	ErrInvalidEmail       = &Error{Code: "auth/invalid-email", Message: "invalid email address"}
	ErrWeakPassword       = &Error{Code: "auth/weak-password", Message: "password must be at least 8 characters"}
	ErrInvalidCredentials = &Error{Code: "auth/invalid-credential", Message: "invalid email or password"}
	ErrInvalidToken       = &Error{Code: "auth/invalid-token", Message: "invalid or expired token"}
	ErrAccountNotFound    = &Error{Code: "auth/user-not-found", Message: "account not found"}
)

// Code returns the identity error code carried by err, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
