package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/brightmarket/storefront/config"
	httpx "github.com/brightmarket/storefront/internal/http"
	"github.com/brightmarket/storefront/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Sessions *service.SessionService
	Logger   *slog.Logger
}

// BuildHTTPServer builds the HTTP server with the full middleware chain.
// The caller owns the server lifecycle.
func BuildHTTPServer(cfg HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handlers := &httpx.SessionHandlers{
		Svc:           cfg.Sessions,
		CookieDomain:  appCfg.HTTP.CookieDomain,
		SecureCookies: !appCfg.IsDev,
		CookieMaxAge:  appCfg.Auth.Session.TTL,
		Logger:        logger,
	}

	handler := httpx.NewRouter(httpx.RouterOptions{
		Sessions: handlers,
		Logger:   logger,
	})

	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
