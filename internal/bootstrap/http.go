package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/curbmap/curbmap-api/config"
	httpx "github.com/curbmap/curbmap-api/internal/http"
	"github.com/curbmap/curbmap-api/internal/service"
)

// HTTPServerConfig contains the pieces needed to assemble the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Auth     *service.AuthService
	Segments httpx.SegmentFinder
	Logger   *slog.Logger
}

// StartHTTPServer builds the middleware stack, starts the listener in a
// goroutine, and returns the server for graceful shutdown. The channel
// receives the serve result exactly once; a graceful shutdown delivers nil.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, <-chan error) {
	if cfg == nil {
		return nil, nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger: logger,
		Config: appCfg,
		Services: httpx.RouterServices{
			Auth:         cfg.Auth,
			Segments:     cfg.Segments,
			CookieDomain: appCfg.HTTP.CookieDomain,
			Logger:       logger,
		},
	})

	return startServer(logger, handler, appCfg.HTTP.Addr)
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Config   *config.AppConfig
	Services httpx.RouterServices
}

// buildHTTPHandler wraps the router in the middleware stack. The origin gate
// sits outside the session middleware so a denied origin never touches the
// session store.
// Order, outermost first: Recover -> Logging -> CORS -> Compression -> Session -> Router.
func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	h := httpx.NewRouter(cfg.Services)

	h = httpx.Session(cfg.Services.Auth, cfg.Config.HTTP.CookieDomain)(h)

	if cfg.Config.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.Config.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{
			Level:  cfg.Config.HTTP.CompressionLevel,
			Logger: cfg.Logger,
		})(h)
	}

	policy := httpx.NewOriginPolicy(cfg.Config.CORS, cfg.Logger)
	if policy.AllowAll() {
		cfg.Logger.Warn("origin policy allows every origin")
	}
	h = httpx.CORS(policy, cfg.Logger)(h)

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) (*http.Server, <-chan error) {
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
		errc <- err
	}()

	return server, errc
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
