package devidentity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmarket/storefront/internal/ports"
)

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{Email: "dev@example.com"})
	require.Error(t, err)

	_, err = NewProvider(Config{UserID: "dev-user"})
	require.Error(t, err)
}

func TestProvider_SignInAnyPassword(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Name: "Dev"})
	require.NoError(t, err)

	identity, err := prov.SignIn(context.Background(), "whoever@example.com", "anything")
	require.NoError(t, err)

	assert.Equal(t, "dev-user", identity.UserID)
	assert.Equal(t, "dev@example.com", identity.Email)
	assert.NotEmpty(t, identity.Tokens.AccessToken)
	assert.NotEmpty(t, identity.Tokens.RefreshToken)
	assert.Greater(t, identity.Tokens.ExpiresAt, time.Now().UnixMilli())
}

func TestProvider_SignUpEchoesSubmission(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	result, err := prov.SignUp(context.Background(), "new@example.com", "pw", "")
	require.NoError(t, err)

	assert.Equal(t, "dev-user", result.Identity.UserID)
	assert.Equal(t, "new@example.com", result.Identity.Email)
	assert.Equal(t, "new", result.Identity.Name)
	assert.False(t, result.RequiresEmailConfirmation)
}

func TestProvider_RefreshMintsNewPair(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	first, err := prov.Refresh(context.Background(), "some-refresh")
	require.NoError(t, err)
	second, err := prov.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestProvider_RefreshEmptyTokenRejected(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	_, err = prov.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrRefreshRejected)
}

func TestProvider_CurrentUserHasNoSession(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	_, err = prov.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoProviderSession)
}
