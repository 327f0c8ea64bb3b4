package gate

import "errors"

var (
	// ErrNotConfigured means no shared secret is set and the gate is disabled.
	ErrNotConfigured = errors.New("no secret configured")
	// ErrInvalidSecret means the submitted secret does not match.
	ErrInvalidSecret = errors.New("invalid secret")
	// ErrNotLocked is returned when submitting outside the LOCKED state.
	ErrNotLocked = errors.New("gate is not locked")
)
