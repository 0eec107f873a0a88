package httpx

import (
	"log/slog"
	"net/http"

	"github.com/curbmap/curbmap-api/internal/service"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Auth         *service.AuthService
	Segments     SegmentFinder
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router. The returned handler
// expects to run behind the Session middleware; the origin gate, logging,
// and compression wrap it at server construction time.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}

	mux.HandleFunc("POST /auth/login", authHandlers.Login)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/status", authHandlers.Status)
	if services.Auth.FederatedEnabled() {
		mux.HandleFunc("GET /auth/oidc/login", authHandlers.FederatedLogin)
		mux.HandleFunc("GET /auth/oidc/callback", authHandlers.FederatedCallback)
	}

	if services.Segments != nil {
		segmentHandlers := &SegmentHandlers{Repo: services.Segments, Logger: services.Logger}
		mux.Handle("GET /api/segments", RequireAuth()(http.HandlerFunc(segmentHandlers.Near)))
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}
