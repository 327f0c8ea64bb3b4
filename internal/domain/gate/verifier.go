// Package gate implements the shared-secret gate: the server-side secret
// check and the client-side LOCKED/VERIFYING/UNLOCKED machine.
package gate

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Verifier checks submitted secrets against the configured one. The secret
// may be stored as plain text or as a bcrypt hash.
type Verifier struct {
	secret []byte
	hashed bool
}

// NewVerifier returns a verifier for secret. An empty secret disables the gate.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), hashed: IsHash(secret)}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool { return len(v.secret) > 0 }

// Hashed reports whether the secret is a bcrypt hash.
func (v *Verifier) Hashed() bool { return v.hashed }

// Verify returns nil when candidate matches, ErrInvalidSecret when it does
// not, and ErrNotConfigured when the gate is disabled.
func (v *Verifier) Verify(_ context.Context, candidate string) error {
	if !v.Enabled() {
		return ErrNotConfigured
	}
	if v.hashed {
		if err := bcrypt.CompareHashAndPassword(v.secret, []byte(candidate)); err != nil {
			return ErrInvalidSecret
		}
		return nil
	}
	if subtle.ConstantTimeCompare(v.secret, []byte(candidate)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}

// IsHash reports whether s looks like a bcrypt hash.
func IsHash(s string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// HashSecret returns a bcrypt hash of plain suitable for configuration.
func HashSecret(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}
