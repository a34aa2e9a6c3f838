package authclient

// Package authclient is the Go client for the storefront auth endpoints. It
// owns the session cookie via an in-process cookie jar and keeps the session
// alive with a background refresh loop.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
)

// DefaultRefreshInterval keeps comfortably inside the access token lifetime
// so refresh happens before server-side expiry checks trigger.
const DefaultRefreshInterval = 4 * time.Minute

// ErrSessionExpired is returned by ForceRefresh when the server reports the
// session is gone.
var ErrSessionExpired = errors.New("session expired")

// Options groups parameters for New.
type Options struct {
	BaseURL         string
	HTTPClient      *http.Client // optional; a cookie jar is installed if missing
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// Client talks to the auth endpoints. All methods are safe for concurrent
// use. The zero value is not usable; construct with New.
type Client struct {
	baseURL         string
	http            *http.Client
	refreshInterval time.Duration
	logger          *slog.Logger

	mu          sync.Mutex
	stopRefresh chan struct{}
	refreshDone chan struct{}
}

// New constructs a Client. When no HTTP client is supplied one is created
// with a public-suffix-aware cookie jar so the session cookie survives
// between calls.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("auth client: base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("auth client: create cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	}

	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		http:            httpClient,
		refreshInterval: interval,
		logger:          logger,
	}, nil
}

// Initialize resolves the current status and starts the refresh loop when
// the visitor turns out to be signed in.
func (c *Client) Initialize(ctx context.Context) domainauth.Status {
	status := c.CheckSession(ctx)
	if status.Authenticated {
		c.StartSessionRefresh()
	}
	return status
}

// CheckSession asks the server for the current auth status. It never fails:
// transport or server errors degrade to an anonymous status.
func (c *Client) CheckSession(ctx context.Context) domainauth.Status {
	var status domainauth.Status
	if err := c.doJSON(ctx, http.MethodGet, "/auth/session", nil, &status); err != nil {
		c.logger.WarnContext(ctx, "session check failed", "err", err)
		return domainauth.Anonymous()
	}
	return status
}

// Login authenticates and starts the refresh loop on success.
func (c *Client) Login(ctx context.Context, email, password string) (domainauth.Status, error) {
	body := map[string]string{"email": email, "password": password}
	var status domainauth.Status
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &status); err != nil {
		return domainauth.Anonymous(), err
	}
	c.StartSessionRefresh()
	return status, nil
}

// SignupOutcome is the client-side view of a signup response.
type SignupOutcome struct {
	Status                    domainauth.Status
	RequiresEmailConfirmation bool
	Message                   string
}

type signupResponse struct {
	Authenticated             bool                       `json:"authenticated"`
	User                      *domainauth.UserProjection `json:"user"`
	RequiresEmailConfirmation bool                       `json:"requires_email_confirmation"`
	Message                   string                     `json:"message"`
}

// Signup registers a new account. When the account is usable immediately the
// refresh loop is started.
func (c *Client) Signup(ctx context.Context, email, password, name string) (SignupOutcome, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var resp signupResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", body, &resp); err != nil {
		return SignupOutcome{Status: domainauth.Anonymous()}, err
	}

	outcome := SignupOutcome{
		Status:                    domainauth.Status{Authenticated: resp.Authenticated, User: resp.User},
		RequiresEmailConfirmation: resp.RequiresEmailConfirmation,
		Message:                   resp.Message,
	}
	if outcome.Status.Authenticated {
		c.StartSessionRefresh()
	}
	return outcome, nil
}

// Signout ends the session and stops the refresh loop. The loop stops even
// when the request fails.
func (c *Client) Signout(ctx context.Context) error {
	c.StopSessionRefresh()
	return c.doJSON(ctx, http.MethodPost, "/auth/signout", nil, nil)
}

// ResetPassword starts a password recovery flow and returns the server's
// confirmation message.
func (c *Client) ResetPassword(ctx context.Context, email string) (string, error) {
	body := map[string]string{"email": email}
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ForceRefresh asks the server to refresh the session's tokens now. The
// response carries no user projection; a subsequent CheckSession resolves it.
func (c *Client) ForceRefresh(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/session/refresh", nil, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return ErrSessionExpired
		}
		return err
	}
	return nil
}

// StartSessionRefresh starts the background refresh loop. Idempotent: a
// running loop is stopped first so there is never more than one.
func (c *Client) StartSessionRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLoopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stopRefresh = stop
	c.refreshDone = done

	go c.refreshLoop(stop, done)
}

// StopSessionRefresh stops the background refresh loop and waits for it to
// exit. Safe to call when no loop is running.
func (c *Client) StopSessionRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLoopLocked()
}

// RefreshLoopActive reports whether the background refresh loop is running.
func (c *Client) RefreshLoopActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRefresh != nil
}

// Close stops the refresh loop and releases idle connections.
func (c *Client) Close() {
	c.StopSessionRefresh()
	c.http.CloseIdleConnections()
}

func (c *Client) stopLoopLocked() {
	if c.stopRefresh == nil {
		return
	}
	close(c.stopRefresh)
	<-c.refreshDone
	c.stopRefresh = nil
	c.refreshDone = nil
}

func (c *Client) refreshLoop(stop chan struct{}, done chan struct{}) {
	// close(done) must run before the state is cleared so a concurrent
	// StopSessionRefresh holding the mutex is never waited on.
	defer c.clearLoopState(stop)
	defer close(done)

	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A proactive session check; the server only rotates tokens
			// that are inside its refresh threshold. A failed tick is not
			// retried, the next tick is the retry.
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			c.CheckSession(ctx)
			cancel()
		}
	}
}

// clearLoopState resets the loop bookkeeping if it still belongs to the
// given loop instance.
func (c *Client) clearLoopState(stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopRefresh == stop {
		c.stopRefresh = nil
		c.refreshDone = nil
	}
}

// APIError is a non-2xx response from the auth endpoints.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("auth api error (status %d)", e.StatusCode)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
	}
	return apiErr
}
