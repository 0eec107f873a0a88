package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// ErrInvalidCredentials is the uniform rejection for a failed login attempt.
// An unknown username and a wrong password both map to this error so clients
// cannot enumerate registered usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LocalStrategy authenticates username/password pairs against the user
// directory. It is the default credential strategy; others (federated
// bridges) plug in behind the same ports.CredentialStrategy contract.
type LocalStrategy struct {
	Directory ports.UserDirectory
	Verifier  ports.PasswordVerifier
}

// Authenticate verifies the pair and returns the principal on success.
// Directory transport failures and malformed stored hashes are internal
// errors; they are never reported to the caller as a credential mismatch.
func (s LocalStrategy) Authenticate(ctx context.Context, username, password string) (*domainauth.User, error) {
	user, err := s.Directory.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	ok, err := s.Verifier.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
