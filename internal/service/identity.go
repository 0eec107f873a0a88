package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// ErrPrincipalNotFound is returned by Decode when the identity token no
// longer resolves to a user. Callers must degrade the session to anonymous
// rather than surfacing an error.
var ErrPrincipalNotFound = errors.New("principal not found")

// IdentityCodec serializes an authenticated user into the compact identity
// token stored inside a session, and reconstitutes the full record on later
// requests. The token is just the username: enough to re-fetch the principal,
// and it never carries the password hash.
type IdentityCodec struct {
	Directory ports.UserDirectory
}

// Encode returns the identity token for a user. Pure and deterministic.
func (IdentityCodec) Encode(user *domainauth.User) string {
	if user == nil {
		return ""
	}
	return user.Username
}

// Decode resolves an identity token back to the full user record.
// A token for a deleted account yields ErrPrincipalNotFound; directory
// transport failures are reported as distinct errors.
func (c IdentityCodec) Decode(ctx context.Context, token string) (*domainauth.User, error) {
	if token == "" {
		return nil, ErrPrincipalNotFound
	}

	user, err := c.Directory.FindByUsername(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("decode identity token: %w", err)
	}
	return user, nil
}
