package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/curbmap/curbmap-api/config"
)

var errOriginDenied = errors.New("origin not permitted")

// Wildcard is the origin list entry meaning "allow any origin".
const Wildcard = "*"

// OriginPolicy decides whether a request's declared origin may proceed. It
// runs before session and authentication logic, so denied origins never
// touch the session store.
type OriginPolicy struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginPolicy builds the policy from configuration. In hardened mode a
// wildcard mixed with explicit entries is treated as a misconfiguration: the
// wildcard is dropped, the explicit list stands, and a warning is logged. A
// wildcard as the only entry still means allow-any in either mode.
func NewOriginPolicy(cfg config.CORSConfig, logger *slog.Logger) *OriginPolicy {
	if logger == nil {
		logger = slog.Default()
	}

	p := &OriginPolicy{allowed: make(map[string]struct{})}

	var sawWildcard bool
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case Wildcard:
			sawWildcard = true
		default:
			p.allowed[origin] = struct{}{}
		}
	}

	if sawWildcard {
		if cfg.Hardened && len(p.allowed) > 0 {
			logger.Warn("ignoring wildcard origin mixed with explicit allowlist",
				slog.Int("explicit_origins", len(p.allowed)))
		} else {
			p.allowAll = true
		}
	}

	return p
}

// IsAllowed reports whether the declared origin may proceed. An empty origin
// means a same-origin request and is always allowed.
func (p *OriginPolicy) IsAllowed(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// AllowAll reports whether the policy permits every origin.
func (p *OriginPolicy) AllowAll() bool { return p.allowAll }

// CORS returns a middleware enforcing the origin policy. Denied origins get
// a 403 before any session logic runs; permitted cross-origin requests get
// the standard CORS response headers, and preflights are answered directly.
func CORS(policy *OriginPolicy, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if !policy.IsAllowed(origin) {
				logger.InfoContext(r.Context(), "origin denied",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path))
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "origin_denied",
					Err:     errOriginDenied,
				})
				return
			}

			if origin != "" {
				// Sessions ride on cookies, so the origin is echoed back
				// rather than a literal wildcard; credentialed responses
				// cannot use "*".
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-No-Compression")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
