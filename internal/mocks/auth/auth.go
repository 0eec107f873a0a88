package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserDirectory     = (*StaticDirectory)(nil)
	_ ports.SessionStore      = (*MemorySessionStore)(nil)
	_ ports.PasswordVerifier  = (*StubVerifier)(nil)
	_ ports.FederatedProvider = (*MockFederatedProvider)(nil)
)

// StaticDirectory is an in-memory user directory for tests.
type StaticDirectory struct {
	mu    sync.Mutex
	users map[string]domainauth.User

	// FindErr, when set, is returned by every lookup to simulate
	// directory transport failures.
	FindErr error
}

// NewStaticDirectory creates a directory pre-populated with the given users.
func NewStaticDirectory(users ...domainauth.User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]domainauth.User)}
	for _, u := range users {
		d.users[u.Username] = u
	}
	return d
}

func (d *StaticDirectory) FindByUsername(_ context.Context, username string) (*domainauth.User, error) {
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[username]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (d *StaticDirectory) Create(_ context.Context, user *domainauth.User) error {
	if user == nil {
		return errors.New("user is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.users[user.Username]; exists {
		return errors.New("username already exists")
	}
	d.users[user.Username] = *user
	return nil
}

// Delete removes a user, simulating account deletion between encode and decode.
func (d *StaticDirectory) Delete(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, username)
}

// MemorySessionStore is an in-memory session store for unit tests.
// Writes replace the record atomically under a mutex, mirroring the
// per-key replace semantics of the Redis store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// SaveErr and GetErr, when set, simulate store transport failures.
	SaveErr error
	GetErr  error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StubVerifier implements ports.PasswordVerifier with a plain string
// comparison, or a custom func when set. Never use outside tests.
type StubVerifier struct {
	VerifyFunc func(plaintext, storedHash string) (bool, error)
}

func (v StubVerifier) Verify(plaintext, storedHash string) (bool, error) {
	if v.VerifyFunc != nil {
		return v.VerifyFunc(plaintext, storedHash)
	}
	return plaintext == storedHash, nil
}

// MockFederatedProvider simulates an IdP with deterministic state/nonce values.
type MockFederatedProvider struct {
	BeginFunc    func(ctx context.Context) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	DefaultIdentity domainauth.Identity
}

func (m *MockFederatedProvider) Begin(ctx context.Context) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return "https://mock-idp/auth", "state-1", "nonce-1", nil
}

func (m *MockFederatedProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	identity := m.DefaultIdentity
	if identity.Username == "" {
		identity = domainauth.Identity{
			Username: "mock-user",
			Email:    "mock.user@example.com",
			Groups:   []string{"users"},
		}
	}
	return identity, nil
}
