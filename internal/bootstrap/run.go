package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/curbmap/curbmap-api/config"
	"github.com/curbmap/curbmap-api/internal/data"
	"github.com/curbmap/curbmap-api/internal/devseed"
	"github.com/curbmap/curbmap-api/internal/service"
)

// RunConfig groups the dependencies for the application runtime.
type RunConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient goredis.UniversalClient
	Logger      *slog.Logger
}

// Run assembles the services, starts the HTTP server, and blocks until an
// interrupt or termination signal triggers a graceful shutdown.
func Run(cfg RunConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authSvc, err := BuildAuthService(AuthDeps{
		Config:      cfg.Config,
		DB:          cfg.DB,
		RedisClient: cfg.RedisClient,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return err
	}

	if cfg.Config.IsDev {
		if seedErr := devseed.Seed(ctx, cfg.DB, cfg.Logger); seedErr != nil {
			cfg.Logger.WarnContext(ctx, "dev seeding failed", "error", seedErr)
		}
	}

	server, serveErr := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Auth:     authSvc,
		Segments: data.NewSegmentRepo(cfg.DB),
		Logger:   cfg.Logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A failed listen (port in use, bad addr) tears the process down
		// instead of leaving it blocked on a signal with no server.
		select {
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		// Shut down with a fresh context; the signal context is already done.
		return ShutdownHTTPServer(context.Background(), server, cfg.Logger)
	})

	logStartup(ctx, cfg.Logger, cfg.Config, authSvc)
	return g.Wait()
}

func logStartup(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig, authSvc *service.AuthService) {
	logger.InfoContext(ctx, "curbmap gateway started",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"federated", authSvc.FederatedEnabled(),
		"session_ttl", authSvc.SessionTTL(),
		"dev", cfg.IsDev,
	)
}
