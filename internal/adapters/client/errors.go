package client

import "errors"

var (
	// ErrLocked means the server redirected to the gate page.
	ErrLocked = errors.New("deck is locked")
	// ErrUnexpectedStatus means the server answered with a status the client
	// does not handle.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
