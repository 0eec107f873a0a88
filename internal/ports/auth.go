package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
)

// ErrUserNotFound is returned by UserDirectory lookups for unknown usernames.
// It is distinct from transport errors so callers can fail closed without
// leaking which of the two occurred to clients.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned by SessionStore.Get for absent or expired
// sessions. The two cases are deliberately indistinguishable.
var ErrSessionNotFound = errors.New("session not found")

// UserDirectory looks up and provisions principal records.
type UserDirectory interface {
	// FindByUsername returns the user record for a username, or ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*domainauth.User, error)

	// Create provisions a new user record. Implementations must reject
	// duplicate usernames.
	Create(ctx context.Context, user *domainauth.User) error
}

// SessionStore persists and retrieves server-side sessions. Writes replace
// the record atomically; absent and expired entries are indistinguishable.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// PasswordVerifier compares a plaintext credential against a stored hash.
// Implementations must be resistant to timing attacks and must report
// malformed hashes as errors rather than panicking.
type PasswordVerifier interface {
	Verify(plaintext, storedHash string) (bool, error)
}

// CredentialStrategy answers whether a username/password pair is valid.
// Additional strategies (e.g. federated identity bridges) plug in behind
// this contract so the session layer stays strategy-agnostic.
type CredentialStrategy interface {
	Authenticate(ctx context.Context, username, password string) (*domainauth.User, error)
}

// FederatedProvider initiates and completes a login flow against an external IdP.
type FederatedProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// RoleMapper maps IdP groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
