package config

import "strings"

// CORSConfig contains the cross-origin policy configuration.
//
// The original deployment listed a wildcard alongside explicit origins, which
// short-circuited the whitelist and effectively disabled CORS protection.
// Hardened mode (the default) ignores a wildcard that appears together with
// explicit entries; the policy gate logs a warning when this happens.
type CORSConfig struct {
	// AllowedOrigins is the set of permitted origins. A single "*" entry
	// allows any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:";" envDefault:"http://localhost:8080;https://curbmap.com;https://curbmap.com:443;http://curbmap.com:8080"`

	// Hardened rejects wildcard entries that are mixed with explicit origins.
	Hardened bool `env:"HARDENED" envDefault:"true"`
}

// Sanitize trims whitespace and drops empty origin entries.
func (c *CORSConfig) Sanitize() {
	cleaned := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	c.AllowedOrigins = cleaned
}
