package engagement

import "errors"

var (
	// ErrLoad is returned when the engagement document cannot be read or parsed.
	ErrLoad = errors.New("load engagement")
	// ErrInvalidEngagement is returned when a document fails validation.
	ErrInvalidEngagement = errors.New("invalid engagement")
	// ErrUnknownLayout is returned for a slide layout outside the known kinds.
	ErrUnknownLayout = errors.New("unknown layout")
)
