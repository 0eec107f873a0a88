package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeLocal verifies username/password credentials against the user directory.
	AuthModeLocal AuthMode = "local"
	// AuthModeOIDC uses a federated OIDC identity provider.
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "local", "oidc":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: local, oidc)", v)
	}
}

// OIDCConfig contains federated OIDC configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/oidc/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// UsernameClaim and GroupsClaim are JMESPath expressions evaluated against
	// the provider's raw claims to extract the curbmap username and groups.
	UsernameClaim string `env:"USERNAME_CLAIM" envDefault:"preferred_username"`
	GroupsClaim   string `env:"GROUPS_CLAIM"   envDefault:"groups"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication strategy handles logins.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"local"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// SessionTTL is the idle lifetime of a session. Each successful
	// load or write slides the expiry forward by this amount.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	// AdminGroup is the IdP group mapped to the admin role for federated logins.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:""`

	// UserGroup is the IdP group mapped to the user role for federated logins.
	UserGroup string `env:"USER_GROUP" envDefault:""`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	// A non-positive TTL would make every session appear expired on write.
	if a.SessionTTL <= 0 {
		a.SessionTTL = 30 * time.Minute
	}
}
