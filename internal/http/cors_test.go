package httpx

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curbmap/curbmap-api/config"
)

func newTestPolicy(hardened bool, origins ...string) *OriginPolicy {
	return NewOriginPolicy(config.CORSConfig{
		AllowedOrigins: origins,
		Hardened:       hardened,
	}, slog.New(slog.DiscardHandler))
}

func TestOriginPolicy_IsAllowed(t *testing.T) {
	tests := []struct {
		name     string
		hardened bool
		origins  []string
		origin   string
		want     bool
	}{
		{
			name:    "exact match allowed",
			origins: []string{"https://curbmap.com"},
			origin:  "https://curbmap.com",
			want:    true,
		},
		{
			name:    "unlisted origin denied",
			origins: []string{"https://curbmap.com"},
			origin:  "https://evil.example",
			want:    false,
		},
		{
			name:    "empty origin is same-origin",
			origins: []string{"https://curbmap.com"},
			origin:  "",
			want:    true,
		},
		{
			name:    "lone wildcard allows any",
			origins: []string{"*"},
			origin:  "https://anything.example",
			want:    true,
		},
		{
			name:     "hardened drops wildcard mixed with allowlist",
			hardened: true,
			origins:  []string{"https://curbmap.com", "*"},
			origin:   "https://evil.example",
			want:     false,
		},
		{
			name:     "hardened keeps explicit entries",
			hardened: true,
			origins:  []string{"https://curbmap.com", "*"},
			origin:   "https://curbmap.com",
			want:     true,
		},
		{
			name:    "legacy mode lets wildcard short-circuit",
			origins: []string{"https://curbmap.com", "*"},
			origin:  "https://evil.example",
			want:    true,
		},
		{
			name:    "no scheme-less match",
			origins: []string{"https://curbmap.com"},
			origin:  "curbmap.com",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newTestPolicy(tt.hardened, tt.origins...)
			if got := policy.IsAllowed(tt.origin); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS_DeniedBeforeHandlerRuns(t *testing.T) {
	var handlerRan bool
	handler := CORS(newTestPolicy(true, "https://curbmap.com"), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerRan = true
		}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if handlerRan {
		t.Error("handler ran for a denied origin")
	}
}

func TestCORS_AllowedOriginGetsHeaders(t *testing.T) {
	handler := CORS(newTestPolicy(true, "https://curbmap.com"), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.Header.Set("Origin", "https://curbmap.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://curbmap.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestCORS_SameOriginGetsNoCORSHeaders(t *testing.T) {
	handler := CORS(newTestPolicy(true, "https://curbmap.com"), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q on same-origin request", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	var handlerRan bool
	handler := CORS(newTestPolicy(true, "https://curbmap.com"), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerRan = true
		}))

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://curbmap.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if handlerRan {
		t.Error("handler ran for a preflight request")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("missing Access-Control-Allow-Methods on preflight response")
	}
}
