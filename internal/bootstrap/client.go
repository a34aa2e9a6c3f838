package bootstrap

import (
	"log/slog"

	"github.com/brightmarket/storefront/config"
	"github.com/brightmarket/storefront/internal/client/authclient"
)

// BuildAuthClient constructs an auth API client pointed at this service's
// public base URL, with the proactive session-check interval taken from
// configuration.
func BuildAuthClient(cfg *config.AppConfig, logger *slog.Logger) (*authclient.Client, error) {
	return authclient.New(authclient.Options{
		BaseURL:         cfg.HTTP.BaseURL,
		RefreshInterval: cfg.Auth.Session.ClientRefreshInterval,
		Logger:          logger,
	})
}
