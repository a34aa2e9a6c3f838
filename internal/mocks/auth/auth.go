package auth

// Package auth contains simple hand-written test doubles for the session and
// identity ports. These are lightweight and suitable for unit tests without
// codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.ProfileStore     = (*MemoryProfileStore)(nil)
	_ ports.CacheRepository  = (*MemoryCache)(nil)
)

// MemorySessionStore is an in-memory ports.SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// Error hooks for failure-path tests.
	CreateErr error
	GetErr    error
	UpdateErr error
	DeleteErr error

	UpdateCalls int
	DeleteCalls int
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *MemorySessionStore) Create(_ context.Context, sess domainauth.Session) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if sess.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if s.GetErr != nil {
		return domainauth.Session{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemorySessionStore) Update(_ context.Context, id string, tokens domainauth.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateCalls++
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return ports.ErrSessionNotFound
	}
	sess.ApplyTokens(tokens)
	s.sessions[id] = sess
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// MockIdentityProvider simulates the identity provider with per-method hooks
// and deterministic defaults.
type MockIdentityProvider struct {
	SignInFunc        func(ctx context.Context, email, password string) (domainauth.Identity, error)
	SignUpFunc        func(ctx context.Context, email, password, name string) (ports.SignupResult, error)
	SignOutFunc       func(ctx context.Context, accessToken string) error
	RefreshFunc       func(ctx context.Context, refreshToken string) (domainauth.TokenPair, error)
	CurrentUserFunc   func(ctx context.Context) (domainauth.Identity, error)
	ResetPasswordFunc func(ctx context.Context, email string) (string, error)

	// DefaultIdentity backs SignIn and SignUp when no hook is set.
	// CurrentUser defaults to ErrNoProviderSession.
	DefaultIdentity domainauth.Identity

	mu           sync.Mutex
	RefreshCalls int
	SignOutCalls int
}

// NewMockIdentityProvider creates a provider with a sensible default identity.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		DefaultIdentity: domainauth.Identity{
			UserID: "user-1",
			Email:  "user@example.com",
			Name:   "Test User",
			Tokens: domainauth.TokenPair{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
			},
		},
	}
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (domainauth.Identity, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	return m.DefaultIdentity, nil
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password, name string) (ports.SignupResult, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password, name)
	}
	return ports.SignupResult{Identity: m.DefaultIdentity}, nil
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	m.SignOutCalls++
	m.mu.Unlock()
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, accessToken)
	}
	return nil
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error) {
	m.mu.Lock()
	m.RefreshCalls++
	fn := m.RefreshFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, refreshToken)
	}
	return domainauth.TokenPair{
		AccessToken:  "access-refreshed",
		RefreshToken: "refresh-refreshed",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}, nil
}

// SetRefreshFunc swaps the Refresh hook. Safe to call while a refresh loop
// is running.
func (m *MockIdentityProvider) SetRefreshFunc(fn func(ctx context.Context, refreshToken string) (domainauth.TokenPair, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshFunc = fn
}

// RefreshCallCount reports how many times Refresh was called.
func (m *MockIdentityProvider) RefreshCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RefreshCalls
}

func (m *MockIdentityProvider) CurrentUser(ctx context.Context) (domainauth.Identity, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return domainauth.Identity{}, ports.ErrNoProviderSession
}

func (m *MockIdentityProvider) ResetPassword(ctx context.Context, email string) (string, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email)
	}
	return "Password reset email sent", nil
}

// MemoryProfileStore is an in-memory ports.ProfileStore.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domainauth.UserProjection

	GetErr    error
	UpsertErr error

	GetCalls int
}

// NewMemoryProfileStore creates an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]domainauth.UserProjection)}
}

func (s *MemoryProfileStore) GetByUserID(_ context.Context, userID string) (domainauth.UserProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.GetErr != nil {
		return domainauth.UserProjection{}, s.GetErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return domainauth.UserProjection{}, ports.ErrProfileNotFound
	}
	return p, nil
}

func (s *MemoryProfileStore) Upsert(_ context.Context, profile domainauth.UserProjection) (domainauth.UserProjection, error) {
	if s.UpsertErr != nil {
		return domainauth.UserProjection{}, s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[profile.ID]; ok {
		profile.IsAdmin = existing.IsAdmin
		profile.StoreVerified = existing.StoreVerified
		if profile.AvatarURL == nil {
			profile.AvatarURL = existing.AvatarURL
		}
	}
	s.profiles[profile.ID] = profile
	return profile, nil
}

// Put seeds a projection, flags included.
func (s *MemoryProfileStore) Put(profile domainauth.UserProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-memory ports.CacheRepository with TTL support.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, nil
	}
	return append([]byte(nil), entry.value...), nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok, nil
}
