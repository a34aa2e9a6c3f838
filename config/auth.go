package config

import (
	"fmt"
	"strings"
	"time"
)

// IdentityMode represents the identity provider mode for the application.
type IdentityMode string

const (
	// IdentityModeLive talks to the external identity provider over HTTP.
	IdentityModeLive IdentityMode = "live"
	// IdentityModeMock uses an in-process identity provider (development only).
	IdentityModeMock IdentityMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityMode.
func (m *IdentityMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "live", "mock":
		*m = IdentityMode(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentityMode: %q (valid options: live, mock)", v)
	}
}

// IdentityConfig contains the external identity provider endpoints and
// credentials (used when Mode=live).
type IdentityConfig struct {
	// BaseURL is the root of the identity provider's REST API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9999"`

	// ClientID and ClientSecret authenticate this backend to the provider's
	// token endpoint.
	ClientID     string `env:"CLIENT_ID"     envDefault:"storefront"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`

	// TokenPath is appended to BaseURL to form the OAuth2-style token
	// endpoint used for password and refresh-token grants.
	TokenPath string `env:"TOKEN_PATH" envDefault:"/token"`
}

// MockIdentityConfig controls the in-process identity provider used when
// Mode=mock for development and testing.
type MockIdentityConfig struct {
	UserID string `env:"USER_ID" envDefault:"dev-user"`
	Email  string `env:"EMAIL"   envDefault:"dev@example.com"`
	Name   string `env:"NAME"    envDefault:"Dev User"`
}

// SessionConfig groups session lifetime tuning.
type SessionConfig struct {
	// TTL is the session store entry lifetime. Reset on every update
	// (sliding expiry); also the session cookie Max-Age.
	TTL time.Duration `env:"TTL" envDefault:"168h"`

	// RefreshThreshold is the remaining access-token lifetime below which a
	// refresh is performed before answering a status check.
	RefreshThreshold time.Duration `env:"REFRESH_THRESHOLD" envDefault:"5m"`

	// ClientRefreshInterval is the interval the client façade uses for its
	// proactive background session checks. Kept below RefreshThreshold so a
	// healthy client never lets its token lapse.
	ClientRefreshInterval time.Duration `env:"CLIENT_REFRESH_INTERVAL" envDefault:"4m"`
}

// Sanitize clamps session tuning to sane values.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = 168 * time.Hour
	}
	if s.RefreshThreshold <= 0 {
		s.RefreshThreshold = 5 * time.Minute
	}
	if s.ClientRefreshInterval <= 0 {
		s.ClientRefreshInterval = 4 * time.Minute
	}
}

// AuthConfig groups all identity and session configuration.
type AuthConfig struct {
	// Mode determines which identity provider implementation to use.
	Mode IdentityMode `env:"IDENTITY_MODE" envDefault:"live"`

	// Identity provider configuration (used when Mode=live).
	Identity IdentityConfig `envPrefix:"IDENTITY_"`

	// Mock identity configuration (used when Mode=mock).
	MockIdentity MockIdentityConfig `envPrefix:"MOCK_IDENTITY_"`

	// Session lifetime configuration.
	Session SessionConfig `envPrefix:"SESSION_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.Session.Sanitize()
}
