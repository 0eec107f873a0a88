package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/ports"
	"github.com/curbmap/curbmap-api/internal/service"
)

// AuthAPI defines the auth service operations the handlers depend on.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
	BeginFederatedLogin(ctx context.Context) (authURL, state, nonce string, err error)
	CompleteFederatedLogin(ctx context.Context, in ports.ExchangeInput) (domainauth.Session, error)
	FederatedEnabled() bool
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthAPI
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles credential login.
// POST /auth/login with {"username": ..., "password": ...}.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_credentials",
			Err:     errors.New("username and password are required"),
		})
		return
	}

	sess, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Uniform response whether the username exists or not.
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "invalid_credentials",
				Err:     errors.New("invalid username or password"),
			})
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("login failed"),
		})
		return
	}

	h.invalidateReplacedSession(r, sess.ID)
	setSessionCookie(w, r, h.CookieDomain, sess)
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"username":   sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}

// invalidateReplacedSession deletes the session the request arrived with.
// Login issues a fresh identifier and the old record must not stay live
// until its TTL runs out. Failed logins keep the presented session.
func (h *AuthHandlers) invalidateReplacedSession(r *http.Request, newID string) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" || cookie.Value == newID {
		return
	}
	if logoutErr := h.Svc.Logout(r.Context(), cookie.Value); logoutErr != nil {
		h.logger().WarnContext(r.Context(), "invalidating replaced session failed", "error", logoutErr)
	}
}

// Logout invalidates the current session. Always succeeds, even when no
// session exists.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	clearSessionCookie(w, r, h.CookieDomain)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Status reports the authentication state of the current request.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	state := StateFromContext(r.Context())
	if !state.Authenticated() {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"username": state.User.Username,
			"role":     state.User.Role,
			"score":    state.User.Score,
		},
		"expires_at": state.Session.ExpiresAt,
	})
}

// FederatedLogin starts the OIDC flow.
// GET /auth/oidc/login?redirect_uri=<optional relative path>.
func (h *AuthHandlers) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	authURL, state, nonce, err := h.Svc.BeginFederatedLogin(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("login failed"),
		})
		return
	}

	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	h.setOAuthCookies(w, r, oauthCookieParams{State: state, Nonce: nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// FederatedCallback completes the OIDC flow.
// GET /auth/oidc/callback?code=<code>&state=<state>.
func (h *AuthHandlers) FederatedCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_params",
			Err:     errors.New("code and state parameters are required"),
		})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	sess, err := h.Svc.CompleteFederatedLogin(r.Context(), ports.ExchangeInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("login failed"),
		})
		return
	}

	h.invalidateReplacedSession(r, sess.ID)
	setSessionCookie(w, r, h.CookieDomain, sess)
	clearCookie(w, r, h.CookieDomain, "oauth_state")
	clearCookie(w, r, h.CookieDomain, "oauth_nonce")

	http.Redirect(w, r, h.postLoginRedirect(w, r), http.StatusFound)
}

// oauthCookieParams groups the values stored across the OIDC round trip.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")

	for name, value := range map[string]string{
		"oauth_state":         p.State,
		"oauth_nonce":         p.Nonce,
		"post_login_redirect": p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int((10 * time.Minute).Seconds()),
		})
	}
}

// postLoginRedirect returns the stored post-login destination and clears the
// cookie carrying it.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if cookie, err := r.Cookie("post_login_redirect"); err == nil {
		redirectURI = safeRedirectPath(cookie.Value)
		clearCookie(w, r, h.CookieDomain, "post_login_redirect")
	}
	return redirectURI
}

// safeRedirectPath ensures the candidate is a same-origin relative path
// starting with "/". Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
