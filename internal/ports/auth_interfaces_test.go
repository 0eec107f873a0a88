package ports_test

import (
	"testing"

	"github.com/curbmap/curbmap-api/internal/mocks"
	mocksauth "github.com/curbmap/curbmap-api/internal/mocks/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
)

// This test only verifies that our doubles conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.UserDirectory = (*mocksauth.StaticDirectory)(nil)
	var _ ports.SessionStore = (*mocksauth.MemorySessionStore)(nil)
	var _ ports.PasswordVerifier = (*mocksauth.StubVerifier)(nil)
	var _ ports.FederatedProvider = (*mocksauth.MockFederatedProvider)(nil)
	var _ ports.UserDirectory = (*mocks.MockUserDirectory)(nil)
	var _ ports.SessionStore = (*mocks.MockSessionStore)(nil)
}
