// Package session keeps the set of session markers issued after a
// successful gate unlock. A marker is valid only while the store knows it.
package session

import (
	"context"
	"errors"
)

// Store issues, checks and revokes session markers.
type Store interface {
	// Issue creates a new marker.
	Issue(ctx context.Context) (string, error)
	// Valid reports whether token was issued and has not expired or been revoked.
	Valid(ctx context.Context, token string) (bool, error)
	// Revoke forgets token. Revoking an unknown token is not an error.
	Revoke(ctx context.Context, token string) error
	// Close releases background resources.
	Close() error
}

// Sentinel errors.
var (
	ErrClosed = errors.New("session store closed")
)
