package devidentity

// Package devidentity provides a config-driven IdentityProvider for local
// development. It accepts any password, mints random opaque tokens, and
// keeps no state beyond the configured identity.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

// Config controls the dev identity provider behavior.
type Config struct {
	UserID        string
	Email         string
	Name          string
	TokenLifetime time.Duration // default 1h when zero
}

// Provider implements ports.IdentityProvider for local development.
// SignIn succeeds for any password, SignUp echoes the submitted email and
// name, and Refresh always issues a fresh pair.
type Provider struct {
	userID        string
	email         string
	name          string
	tokenLifetime time.Duration
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev identity: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev identity: Email is required")
	}
	lifetime := cfg.TokenLifetime
	if lifetime == 0 {
		lifetime = time.Hour
	}
	return &Provider{
		userID:        cfg.UserID,
		email:         cfg.Email,
		name:          cfg.Name,
		tokenLifetime: lifetime,
	}, nil
}

// SignIn ignores the password and returns the configured identity with a
// freshly minted token pair.
func (p *Provider) SignIn(_ context.Context, email, _ string) (domainauth.Identity, error) {
	if email == "" {
		return domainauth.Identity{}, &ports.ProviderError{StatusCode: 400, Message: "email is required"}
	}
	tokens, err := p.mintTokens()
	if err != nil {
		return domainauth.Identity{}, err
	}
	return domainauth.Identity{
		UserID: p.userID,
		Email:  p.email,
		Name:   p.name,
		Tokens: tokens,
	}, nil
}

// SignUp echoes the submitted email and name so local flows look like a
// real registration, but the user ID stays the configured one.
func (p *Provider) SignUp(_ context.Context, email, _, name string) (ports.SignupResult, error) {
	if email == "" {
		return ports.SignupResult{}, &ports.ProviderError{StatusCode: 400, Message: "email is required"}
	}
	tokens, err := p.mintTokens()
	if err != nil {
		return ports.SignupResult{}, err
	}
	displayName := name
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	return ports.SignupResult{
		Identity: domainauth.Identity{
			UserID: p.userID,
			Email:  email,
			Name:   displayName,
			Tokens: tokens,
		},
	}, nil
}

// SignOut is a no-op; the dev provider keeps no server-side session.
func (p *Provider) SignOut(_ context.Context, _ string) error {
	return nil
}

// Refresh issues a new pair for any non-empty refresh token.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (domainauth.TokenPair, error) {
	if refreshToken == "" {
		return domainauth.TokenPair{}, ports.ErrRefreshRejected
	}
	return p.mintTokens()
}

// CurrentUser reports no live provider session; dev sessions are always
// rebuilt through SignIn.
func (p *Provider) CurrentUser(_ context.Context) (domainauth.Identity, error) {
	return domainauth.Identity{}, ports.ErrNoProviderSession
}

// ResetPassword pretends to send the email.
func (p *Provider) ResetPassword(_ context.Context, email string) (string, error) {
	if email == "" {
		return "", &ports.ProviderError{StatusCode: 400, Message: "email is required"}
	}
	return "Password reset email sent", nil
}

func (p *Provider) mintTokens() (domainauth.TokenPair, error) {
	access, err := randomToken(32)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := randomToken(32)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("mint refresh token: %w", err)
	}
	return domainauth.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(p.tokenLifetime).UnixMilli(),
	}, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
