package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/curbmap/curbmap-api/config"
	"github.com/curbmap/curbmap-api/internal/adapters/authroles"
	"github.com/curbmap/curbmap-api/internal/adapters/oidc"
	"github.com/curbmap/curbmap-api/internal/adapters/password"
	redisadapter "github.com/curbmap/curbmap-api/internal/adapters/redis"
	"github.com/curbmap/curbmap-api/internal/data"
	"github.com/curbmap/curbmap-api/internal/service"
)

// AuthDeps groups the shared dependencies for building the auth service.
type AuthDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient goredis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService wires the authentication gateway: the user directory, the
// Redis session store, the credential strategy, and, in OIDC mode, the
// federated provider.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	directory := data.NewUserRepo(deps.DB)
	sessions := redisadapter.NewSessionStore(deps.RedisClient)

	opts := service.AuthServiceOptions{
		Strategy: service.LocalStrategy{
			Directory: directory,
			Verifier:  password.BcryptVerifier{},
		},
		Directory:  directory,
		Sessions:   sessions,
		SessionTTL: deps.Config.Auth.SessionTTL,
		Logger:     deps.Logger,
	}

	if deps.Config.Auth.Mode == config.AuthModeOIDC {
		provider, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:      deps.Config.Auth.OIDC.ClientID,
			ClientSecret:  deps.Config.Auth.OIDC.ClientSecret,
			RedirectURL:   deps.Config.Auth.OIDC.RedirectURL,
			Scope:         deps.Config.Auth.OIDC.Scope,
			DiscoveryURL:  deps.Config.Auth.OIDC.DiscoveryURL,
			UsernameClaim: deps.Config.Auth.OIDC.UsernameClaim,
			GroupsClaim:   deps.Config.Auth.OIDC.GroupsClaim,
		})
		if err != nil {
			return nil, fmt.Errorf("build oidc provider: %w", err)
		}
		opts.Provider = provider
		opts.Roles = authroles.StaticRoleMapper{
			AdminGroup: deps.Config.Auth.AdminGroup,
			UserGroup:  deps.Config.Auth.UserGroup,
		}
	}

	return service.NewAuthService(opts), nil
}
