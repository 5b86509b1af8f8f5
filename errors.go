package access

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeDuplicateEmail     = "duplicate_email"
	TextCodeInvalidProfile     = "invalid_profile"
	TextCodeStoreUnavailable   = "store_unavailable"
	TextCodeStaleSession       = "stale_session"
	TextCodeSessionUnresolved  = "session_unresolved"
)

// ErrInvalidCredentials is returned verbatim for a rejected
// email/password pair. It never reveals whether the email exists.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is returned when registration hits an existing identity.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrValidation is returned when a registration profile fails validation.
var ErrValidation = errors.New("invalid registration profile", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidProfile).
	WithCode(errors.CodeBadRequest)

// ErrStoreUnavailable wraps transient identity store failures. The
// session manager does not retry; retry policy belongs to the caller.
var ErrStoreUnavailable = errors.New("identity store unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrStaleSession marks a persisted snapshot that failed revalidation
// at restore. It is resolved silently by clearing local state and is
// never surfaced to the user.
var ErrStaleSession = errors.New("persisted session failed revalidation", errors.CategoryAuth).
	WithTextCode(TextCodeStaleSession).
	WithCode(errors.CodeUnauthorized)

// ErrSessionUnresolved is returned when a session-dependent operation
// runs before the initial restore completed.
var ErrSessionUnresolved = errors.New("session not yet resolved", errors.CategoryOperation).
	WithTextCode(TextCodeSessionUnresolved).
	WithCode(errors.CodeInternal)

// IsInvalidCredentials reports whether err is the credential rejection.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// IsDuplicateEmail reports whether err is the registration conflict.
func IsDuplicateEmail(err error) bool {
	return errors.Is(err, ErrDuplicateEmail)
}

// storeFailure wraps low-level store errors into the transient bucket.
func storeFailure(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryOperation, ErrStoreUnavailable.Message).
		WithTextCode(TextCodeStoreUnavailable).
		WithCode(errors.CodeInternal)
}
