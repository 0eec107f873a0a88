package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// defaultSessionTTL matches the config default; used when options omit a TTL.
const defaultSessionTTL = 30 * time.Minute

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Strategy  ports.CredentialStrategy
	Directory ports.UserDirectory
	Sessions  ports.SessionStore

	// Federated login (optional; nil disables the OIDC endpoints).
	Provider ports.FederatedProvider
	Roles    ports.RoleMapper

	SessionTTL time.Duration
	Logger     *slog.Logger
}

// AuthService orchestrates the authentication gateway: credential
// verification, session lifecycle, and principal reconstitution.
type AuthService struct {
	strategy ports.CredentialStrategy
	sessions ports.SessionStore
	provider ports.FederatedProvider
	roles    ports.RoleMapper
	codec    IdentityCodec

	ttl    time.Duration
	logger *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		strategy: opts.Strategy,
		sessions: opts.Sessions,
		provider: opts.Provider,
		roles:    opts.Roles,
		codec:    IdentityCodec{Directory: opts.Directory},
		ttl:      ttl,
		logger:   logger,
	}
}

// FederatedEnabled reports whether OIDC login endpoints should be exposed.
func (s *AuthService) FederatedEnabled() bool { return s.provider != nil }

// SessionTTL returns the configured idle session lifetime.
func (s *AuthService) SessionTTL() time.Duration { return s.ttl }

// Login authenticates the credential pair and, on success, establishes an
// authenticated session. The returned error is ErrInvalidCredentials for
// any credential mismatch; everything else is an internal failure that has
// already been logged with detail.
func (s *AuthService) Login(ctx context.Context, username, password string) (domainauth.Session, error) {
	user, err := s.strategy.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return domainauth.Session{}, ErrInvalidCredentials
		}
		// Detail stays server-side; the caller sees a generic failure.
		s.logger.ErrorContext(ctx, "authentication failed", "error", err)
		return domainauth.Session{}, fmt.Errorf("authenticate: %w", err)
	}

	return s.establishSession(ctx, user)
}

// BeginFederatedLogin starts the OIDC flow.
func (s *AuthService) BeginFederatedLogin(ctx context.Context) (authURL, state, nonce string, err error) {
	if s.provider == nil {
		return "", "", "", errors.New("federated login is not configured")
	}
	return s.provider.Begin(ctx)
}

// CompleteFederatedLogin exchanges the callback code for an identity,
// provisions the user on first login, and establishes a session.
func (s *AuthService) CompleteFederatedLogin(ctx context.Context, in ports.ExchangeInput) (domainauth.Session, error) {
	if s.provider == nil {
		return domainauth.Session{}, errors.New("federated login is not configured")
	}

	identity, err := s.provider.Exchange(ctx, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "federated exchange failed", "error", err)
		return domainauth.Session{}, fmt.Errorf("federated exchange: %w", err)
	}

	user, err := s.codec.Directory.FindByUsername(ctx, identity.Username)
	switch {
	case errors.Is(err, ports.ErrUserNotFound):
		role := domainauth.RoleUser
		if s.roles != nil {
			role = s.roles.Map(identity.Groups)
		}
		user = &domainauth.User{Username: identity.Username, Role: role}
		if createErr := s.codec.Directory.Create(ctx, user); createErr != nil {
			s.logger.ErrorContext(ctx, "provision federated user failed", "error", createErr)
			return domainauth.Session{}, fmt.Errorf("provision user: %w", createErr)
		}
	case err != nil:
		s.logger.ErrorContext(ctx, "directory lookup failed", "error", err)
		return domainauth.Session{}, fmt.Errorf("directory lookup: %w", err)
	}

	return s.establishSession(ctx, user)
}

// establishSession encodes the principal and persists a fresh session with
// full TTL. The session identifier is random and never derived from the
// identity token, so a known username cannot be used to forge a session.
func (s *AuthService) establishSession(ctx context.Context, user *domainauth.User) (domainauth.Session, error) {
	sess := domainauth.Session{
		ID:        uuid.NewString(),
		Token:     s.codec.Encode(user),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "save session failed", "error", err)
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Resolve loads the session for an identifier and reconstitutes its
// principal. Absent and expired sessions resolve to the anonymous state
// with no error. A token that no longer maps to a user self-heals: the
// token is cleared and the session persists as anonymous. The expiry
// slides forward on every successful load.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (domainauth.State, error) {
	if sessionID == "" {
		return domainauth.State{}, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return domainauth.State{}, nil
		}
		// Transport failure: report it so callers can fall back to
		// anonymous while the detail is logged.
		s.logger.ErrorContext(ctx, "session load failed", "error", err)
		return domainauth.State{}, fmt.Errorf("get session: %w", err)
	}

	var user *domainauth.User
	if !sess.Anonymous() {
		user, err = s.codec.Decode(ctx, sess.Token)
		switch {
		case errors.Is(err, ErrPrincipalNotFound):
			// The account behind the token is gone; degrade to anonymous.
			sess.Token = ""
			user = nil
		case err != nil:
			s.logger.ErrorContext(ctx, "identity decode failed", "error", err)
			return domainauth.State{}, fmt.Errorf("decode identity: %w", err)
		}
	}

	// Sliding expiration: refresh on every load. Last-write-wins is fine
	// for concurrent requests; the store replaces the record atomically.
	sess.ExpiresAt = time.Now().Add(s.ttl)
	if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
		s.logger.WarnContext(ctx, "session refresh failed", "error", saveErr)
	}

	return domainauth.State{Session: sess, User: user}, nil
}

// Logout removes a session. Unknown identifiers are not an error; logout
// is idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to log out
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
