package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// User is the principal record owned by the user directory. The password
// hash never leaves the credential verifier; handlers see it only through
// this read-only record.
type User struct {
	ID           string
	Username     string // stable identifier; the identity token is derived from it
	PasswordHash string // opaque bcrypt hash, empty for federated-only accounts
	Role         Role
	Score        int // crowd-sourcing contribution score
	CreatedAt    time.Time
}

// Identity represents the authenticated principal returned by a federated IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Username string
	Email    string
	Groups   []string
}

// Session is the server-side record keyed by an opaque identifier.
// Token holds the encoded identity of the authenticated user; an empty
// Token means the session is anonymous. Values is an open extension bag
// for per-session state that does not warrant a dedicated field.
type Session struct {
	ID        string            `json:"id"`
	Token     string            `json:"token,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Anonymous reports whether the session carries no identity token.
func (s Session) Anonymous() bool { return s.Token == "" }

// State is the tagged result of reconstituting a session's principal.
// Authenticated sessions carry the resolved user; anonymous ones do not.
// This replaces nil-checks scattered through handlers.
type State struct {
	Session Session
	User    *User
}

// Authenticated reports whether a principal was resolved for this request.
func (s State) Authenticated() bool { return s.User != nil }
