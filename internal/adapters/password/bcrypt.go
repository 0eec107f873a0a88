package password

// Package password provides the bcrypt credential verifier. Contributor
// passwords have always been stored as bcrypt hashes, so verification and
// hashing both go through this adapter.

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for new hashes.
const DefaultCost = 12

// BcryptVerifier verifies plaintext credentials against stored bcrypt hashes.
// The comparison is constant-time inside the bcrypt primitive. The zero
// value is ready to use.
type BcryptVerifier struct{}

// Verify reports whether plaintext matches the stored hash. A malformed or
// truncated hash is a verification error, not a mismatch; callers must treat
// it as an internal failure rather than invalid credentials.
func (BcryptVerifier) Verify(plaintext, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		// Hash format problems (bad prefix, bad cost, truncated hash).
		// Never include the hash itself in the error.
		return false, fmt.Errorf("compare password hash: %w", err)
	}
}

// Hash derives a bcrypt hash for a new password at DefaultCost.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
