package bootstrap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbmap/curbmap-api/config"
	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	httpx "github.com/curbmap/curbmap-api/internal/http"
	mocksauth "github.com/curbmap/curbmap-api/internal/mocks/auth"
	"github.com/curbmap/curbmap-api/internal/service"
)

func newHandlerFixture(t *testing.T, appCfg *config.AppConfig) http.Handler {
	t.Helper()

	dir := mocksauth.NewStaticDirectory(domainauth.User{Username: "jane", PasswordHash: "hunter2"})
	svc := service.NewAuthService(service.AuthServiceOptions{
		Strategy:   service.LocalStrategy{Directory: dir, Verifier: mocksauth.StubVerifier{}},
		Directory:  dir,
		Sessions:   mocksauth.NewMemorySessionStore(),
		SessionTTL: time.Hour,
		Logger:     slog.New(slog.DiscardHandler),
	})

	return buildHTTPHandler(httpHandlerConfig{
		Logger: slog.New(slog.DiscardHandler),
		Config: appCfg,
		Services: httpx.RouterServices{
			Auth:   svc,
			Logger: slog.New(slog.DiscardHandler),
		},
	})
}

func gatewayConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.CORS.AllowedOrigins = []string{"https://curbmap.com"}
	cfg.CORS.Hardened = true
	cfg.HTTP.CompressionEnabled = true
	cfg.HTTP.CompressionLevel = 6
	return cfg
}

func TestBuildHTTPHandler_OriginGateRunsBeforeSessionLogic(t *testing.T) {
	handler := newHandlerFixture(t, gatewayConfig())

	body, err := json.Marshal(map[string]string{"username": "jane", "password": "hunter2"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, httpx.SessionCookieName, c.Name, "denied origin must not create a session")
	}
}

func TestBuildHTTPHandler_FullLoginFlow(t *testing.T) {
	handler := newHandlerFixture(t, gatewayConfig())

	body, err := json.Marshal(map[string]string{"username": "jane", "password": "hunter2"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Origin", "https://curbmap.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://curbmap.com", rec.Header().Get("Access-Control-Allow-Origin"))

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpx.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	statusReq := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	statusReq.AddCookie(sessionCookie)
	statusRec := httptest.NewRecorder()
	handler.ServeHTTP(statusRec, statusReq)

	require.Equal(t, http.StatusOK, statusRec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["authenticated"])
}

func TestBuildHTTPHandler_CompressionApplied(t *testing.T) {
	handler := newHandlerFixture(t, gatewayConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "authenticated")
}

func TestStartServer_ReportsListenFailure(t *testing.T) {
	// Occupy a port so ListenAndServe fails immediately.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	server, errc := startServer(slog.New(slog.DiscardHandler), http.NotFoundHandler(), ln.Addr().String())
	defer func() { _ = server.Close() }()

	select {
	case err := <-errc:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listen failure never reported")
	}
}

func TestStartServer_GracefulShutdownReportsNil(t *testing.T) {
	server, errc := startServer(slog.New(slog.DiscardHandler), http.NotFoundHandler(), "127.0.0.1:0")

	require.NoError(t, ShutdownHTTPServer(context.Background(), server, nil))

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve result never reported")
	}
}

func TestBuildHTTPHandler_CompressionOptOut(t *testing.T) {
	handler := newHandlerFixture(t, gatewayConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set(httpx.NoCompressionHeader, "1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}
