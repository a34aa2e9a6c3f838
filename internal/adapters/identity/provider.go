package identity

// Package identity provides the HTTP adapter for the external identity
// provider. The provider's token endpoint speaks OAuth2-style password and
// refresh-token grants; sign-up, sign-out, current-user, and password reset
// are plain REST calls against the same base URL.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

// Provider implements ports.IdentityProvider against a remote identity
// service.
type Provider struct {
	oauth      *oauth2.Config
	baseURL    string
	httpClient *http.Client
}

// ProviderConfig holds configuration for the identity provider adapter.
type ProviderConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenPath    string       // default "/token"
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client
}

// NewProvider creates a new identity provider adapter.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = "/token"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// providerUser is the user shape returned by the provider's REST endpoints.
type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignIn performs a password grant against the token endpoint and resolves
// the identity behind the returned access token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (domainauth.Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return domainauth.Identity{}, mapTokenError(err)
	}

	user, err := p.fetchUser(ctx, token.AccessToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("fetch user after sign-in: %w", err)
	}

	return domainauth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Tokens: tokensFromOAuth(token),
	}, nil
}

// signupResponse is the provider's sign-up response. Token fields are absent
// when email confirmation is required.
type signupResponse struct {
	User                      providerUser `json:"user"`
	AccessToken               string       `json:"access_token"`
	RefreshToken              string       `json:"refresh_token"`
	ExpiresAt                 int64        `json:"expires_at"` // epoch seconds
	RequiresEmailConfirmation bool         `json:"requires_email_confirmation"`
	Message                   string       `json:"message"`
}

func (p *Provider) SignUp(ctx context.Context, email, password, name string) (ports.SignupResult, error) {
	body := map[string]string{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}

	var resp signupResponse
	if err := p.postJSON(ctx, "/signup", body, &resp); err != nil {
		return ports.SignupResult{}, err
	}

	result := ports.SignupResult{
		Identity: domainauth.Identity{
			UserID: resp.User.ID,
			Email:  resp.User.Email,
			Name:   resp.User.Name,
			Tokens: domainauth.TokenPair{
				AccessToken:  resp.AccessToken,
				RefreshToken: resp.RefreshToken,
				ExpiresAt:    resp.ExpiresAt * 1000,
			},
		},
		RequiresEmailConfirmation: resp.RequiresEmailConfirmation,
		Message:                   resp.Message,
	}

	return result, nil
}

func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("build sign-out request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	defer resp.Body.Close()

	// An already-invalid token is as signed out as it gets.
	if resp.StatusCode >= 500 {
		return readProviderError(resp)
	}
	return nil
}

// Refresh exchanges a refresh token for a fresh pair via the refresh-token
// grant. A rejected token maps to ports.ErrRefreshRejected so callers can
// fail closed.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error) {
	if refreshToken == "" {
		return domainauth.TokenPair{}, ports.ErrRefreshRejected
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	src := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response.StatusCode < 500 {
			return domainauth.TokenPair{}, ports.ErrRefreshRejected
		}
		return domainauth.TokenPair{}, fmt.Errorf("refresh token: %w", err)
	}

	return tokensFromOAuth(token), nil
}

// CurrentUser resolves the provider's own live session, if any. The injected
// HTTP client carries whatever ambient credentials the provider uses.
func (p *Provider) CurrentUser(ctx context.Context) (domainauth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user", nil)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("build current-user request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("current user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return domainauth.Identity{}, ports.ErrNoProviderSession
	}
	if resp.StatusCode != http.StatusOK {
		return domainauth.Identity{}, readProviderError(resp)
	}

	var body struct {
		User         providerUser `json:"user"`
		AccessToken  string       `json:"access_token"`
		RefreshToken string       `json:"refresh_token"`
		ExpiresAt    int64        `json:"expires_at"` // epoch seconds
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil {
		return domainauth.Identity{}, fmt.Errorf("decode current-user response: %w", decodeErr)
	}
	if body.User.ID == "" {
		return domainauth.Identity{}, ports.ErrNoProviderSession
	}

	return domainauth.Identity{
		UserID: body.User.ID,
		Email:  body.User.Email,
		Name:   body.User.Name,
		Tokens: domainauth.TokenPair{
			AccessToken:  body.AccessToken,
			RefreshToken: body.RefreshToken,
			ExpiresAt:    body.ExpiresAt * 1000,
		},
	}, nil
}

func (p *Provider) ResetPassword(ctx context.Context, email string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := p.postJSON(ctx, "/recover", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Password reset email sent"
	}
	return resp.Message, nil
}

// fetchUser resolves the user behind an access token.
func (p *Provider) fetchUser(ctx context.Context, accessToken string) (providerUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user", nil)
	if err != nil {
		return providerUser{}, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return providerUser{}, fmt.Errorf("get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providerUser{}, readProviderError(resp)
	}

	var body struct {
		User providerUser `json:"user"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil {
		return providerUser{}, fmt.Errorf("decode user response: %w", decodeErr)
	}
	return body.User, nil
}

// postJSON posts a JSON body to path and decodes a JSON response into dst.
// Non-2xx responses are returned as *ports.ProviderError.
func (p *Provider) postJSON(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readProviderError(resp)
	}

	if dst == nil {
		return nil
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(dst); decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	return nil
}

// readProviderError extracts the provider's error message from a failed
// response so it can be surfaced verbatim.
func readProviderError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(data, &body); err == nil {
		msg = body.Error
		if msg == "" {
			msg = body.Message
		}
	}

	return &ports.ProviderError{StatusCode: resp.StatusCode, Message: msg}
}

// mapTokenError converts oauth2 token-endpoint failures into the port's
// error shapes, preserving the provider's message for user display.
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		msg := retrieveErr.ErrorDescription
		if msg == "" {
			msg = retrieveErr.ErrorCode
		}
		return &ports.ProviderError{
			StatusCode: retrieveErr.Response.StatusCode,
			Message:    msg,
		}
	}
	return fmt.Errorf("token request: %w", err)
}

func tokensFromOAuth(token *oauth2.Token) domainauth.TokenPair {
	return domainauth.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.UnixMilli(),
	}
}

var _ ports.IdentityProvider = (*Provider)(nil)
