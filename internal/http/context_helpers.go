package httpx

import (
	"context"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
)

// stateKey is an unexported context key type to avoid collisions across
// packages. Centralized here so middleware and handlers share the same key.
type stateKey struct{}

// SetStateInContext returns a child context carrying the resolved auth state.
func SetStateInContext(ctx context.Context, state domainauth.State) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

// StateFromContext returns the auth state attached by the session middleware.
// When no middleware ran, the zero (anonymous) state is returned.
func StateFromContext(ctx context.Context) domainauth.State {
	if state, ok := ctx.Value(stateKey{}).(domainauth.State); ok {
		return state
	}
	return domainauth.State{}
}

// CurrentUser returns the authenticated principal for the request, or nil
// for anonymous requests.
func CurrentUser(ctx context.Context) *domainauth.User {
	return StateFromContext(ctx).User
}
