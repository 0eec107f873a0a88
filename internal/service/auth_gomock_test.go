package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/mocks"
	"github.com/curbmap/curbmap-api/internal/service"
)

// Verifies the load-then-refresh ordering of Resolve against the store: the
// record is fetched once and written back exactly once with a later expiry.
func TestAuthService_ResolveRefreshOrdering(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	directory := mocks.NewMockUserDirectory(ctrl)

	stored := domainauth.Session{
		ID:        "sess-1",
		Token:     "jane",
		ExpiresAt: time.Now().Add(time.Minute),
	}

	gomock.InOrder(
		sessions.EXPECT().
			Get(gomock.Any(), "sess-1").
			Return(stored, nil),
		directory.EXPECT().
			FindByUsername(gomock.Any(), "jane").
			Return(&domainauth.User{Username: "jane", Role: domainauth.RoleUser}, nil),
		sessions.EXPECT().
			Save(gomock.Any(), gomock.Cond(func(s domainauth.Session) bool {
				return s.ID == "sess-1" && s.ExpiresAt.After(stored.ExpiresAt)
			})).
			Return(nil),
	)

	svc := service.NewAuthService(service.AuthServiceOptions{
		Directory:  directory,
		Sessions:   sessions,
		SessionTTL: time.Hour,
		Logger:     slog.New(slog.DiscardHandler),
	})

	state, err := svc.Resolve(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, state.Authenticated())
	assert.Equal(t, "jane", state.User.Username)
}

// Verifies Logout issues exactly one delete per call, even for identifiers
// the store has never seen.
func TestAuthService_LogoutDeleteCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	directory := mocks.NewMockUserDirectory(ctrl)

	sessions.EXPECT().Delete(gomock.Any(), "sess-1").Return(nil).Times(2)

	svc := service.NewAuthService(service.AuthServiceOptions{
		Directory: directory,
		Sessions:  sessions,
		Logger:    slog.New(slog.DiscardHandler),
	})

	require.NoError(t, svc.Logout(context.Background(), "sess-1"))
	require.NoError(t, svc.Logout(context.Background(), "sess-1"))
	// Empty identifiers never reach the store.
	require.NoError(t, svc.Logout(context.Background(), ""))
}
