package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	mocksauth "github.com/curbmap/curbmap-api/internal/mocks/auth"
)

func TestIdentityCodec_RoundTrip(t *testing.T) {
	dir := mocksauth.NewStaticDirectory(domainauth.User{Username: "jane", Role: domainauth.RoleUser})
	codec := IdentityCodec{Directory: dir}

	token := codec.Encode(&domainauth.User{Username: "jane", PasswordHash: "secret"})
	assert.Equal(t, "jane", token)

	user, err := codec.Decode(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "jane", user.Username)
}

func TestIdentityCodec_EncodeNeverLeaksHash(t *testing.T) {
	codec := IdentityCodec{}
	token := codec.Encode(&domainauth.User{Username: "jane", PasswordHash: "$2a$12$secret"})
	assert.NotContains(t, token, "secret")
}

func TestIdentityCodec_DecodeEmptyToken(t *testing.T) {
	codec := IdentityCodec{Directory: mocksauth.NewStaticDirectory()}

	_, err := codec.Decode(context.Background(), "")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestIdentityCodec_DecodeDeletedPrincipal(t *testing.T) {
	dir := mocksauth.NewStaticDirectory(domainauth.User{Username: "jane"})
	codec := IdentityCodec{Directory: dir}

	token := codec.Encode(&domainauth.User{Username: "jane"})
	dir.Delete("jane")

	_, err := codec.Decode(context.Background(), token)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestIdentityCodec_DecodeTransportError(t *testing.T) {
	dir := mocksauth.NewStaticDirectory()
	dir.FindErr = errors.New("connection refused")
	codec := IdentityCodec{Directory: dir}

	_, err := codec.Decode(context.Background(), "jane")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPrincipalNotFound)
}
