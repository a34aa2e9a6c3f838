package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmarket/storefront/config"
	"github.com/brightmarket/storefront/internal/adapters/devidentity"
	"github.com/brightmarket/storefront/internal/adapters/identity"
)

func TestBuildIdentityProviderModeSwitch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("mock mode builds dev provider", func(t *testing.T) {
		provider, err := buildIdentityProvider(config.AuthConfig{
			Mode: config.IdentityModeMock,
			MockIdentity: config.MockIdentityConfig{
				UserID: "dev-user",
				Email:  "dev@example.com",
				Name:   "Dev User",
			},
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &devidentity.Provider{}, provider)
	})

	t.Run("live mode builds HTTP provider", func(t *testing.T) {
		provider, err := buildIdentityProvider(config.AuthConfig{
			Mode: config.IdentityModeLive,
			Identity: config.IdentityConfig{
				BaseURL:  "http://localhost:9999",
				ClientID: "storefront",
			},
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &identity.Provider{}, provider)
	})

	t.Run("live mode requires base URL", func(t *testing.T) {
		_, err := buildIdentityProvider(config.AuthConfig{
			Mode: config.IdentityModeLive,
		}, logger)
		require.Error(t, err)
	})

	t.Run("unknown mode fails", func(t *testing.T) {
		_, err := buildIdentityProvider(config.AuthConfig{Mode: "saml"}, logger)
		require.Error(t, err)
	})
}
