package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/brightmarket/storefront/config"
	"github.com/brightmarket/storefront/internal/adapters/devidentity"
	"github.com/brightmarket/storefront/internal/adapters/identity"
	redisadapter "github.com/brightmarket/storefront/internal/adapters/redis"
	"github.com/brightmarket/storefront/internal/data"
	"github.com/brightmarket/storefront/internal/ports"
	"github.com/brightmarket/storefront/internal/service"
)

// AuthDeps groups dependencies for building the session services.
type AuthDeps struct {
	Auth        config.AuthConfig
	Cache       config.CacheConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildSessionService wires the session service stack: identity provider
// adapter per the configured mode, Redis session store and projection cache,
// and the Postgres profile repository.
func BuildSessionService(deps AuthDeps) (*service.SessionService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := buildIdentityProvider(deps.Auth, logger)
	if err != nil {
		return nil, err
	}

	sessions := redisadapter.NewSessionStore(deps.RedisClient, redisadapter.SessionStoreOptions{
		TTL: deps.Auth.Session.TTL,
	})

	profiles := service.NewProfileService(service.ProfileServiceOptions{
		Profiles: data.NewProfileRepo(deps.DB),
		Cache:    redisadapter.NewCacheRepo(deps.RedisClient),
		CacheTTL: deps.Cache.ProfileTTL,
		Logger:   logger,
	})

	return service.NewSessionService(service.SessionServiceOptions{
		Provider:         provider,
		Sessions:         sessions,
		Profiles:         profiles,
		RefreshThreshold: deps.Auth.Session.RefreshThreshold,
		Logger:           logger,
	}), nil
}

//nolint:ireturn // the provider implementation is selected at runtime.
func buildIdentityProvider(cfg config.AuthConfig, logger *slog.Logger) (ports.IdentityProvider, error) {
	switch cfg.Mode {
	case config.IdentityModeMock:
		logger.Warn("using mock identity provider", "user_id", cfg.MockIdentity.UserID)
		return devidentity.NewProvider(devidentity.Config{
			UserID: cfg.MockIdentity.UserID,
			Email:  cfg.MockIdentity.Email,
			Name:   cfg.MockIdentity.Name,
		})

	case config.IdentityModeLive:
		return identity.NewProvider(identity.ProviderConfig{
			BaseURL:      cfg.Identity.BaseURL,
			ClientID:     cfg.Identity.ClientID,
			ClientSecret: cfg.Identity.ClientSecret,
			TokenPath:    cfg.Identity.TokenPath,
		})

	default:
		return nil, fmt.Errorf("unknown identity mode: %q", cfg.Mode)
	}
}
