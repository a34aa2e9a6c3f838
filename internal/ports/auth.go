package ports

// Package ports defines interfaces (hexagonal ports) for session and identity
// behavior. Implementations live in internal/adapters and internal/data;
// orchestration in internal/service.

import (
	"context"
	"fmt"
	"time"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
)

// SessionStore persists session records under a TTL. The store's TTL is
// independent of the access token expiry carried inside the record; Update
// resets it to the full window (sliding expiry).
type SessionStore interface {
	// Create writes a new record with the full TTL.
	Create(ctx context.Context, sess domainauth.Session) error

	// Get returns the record for id. Missing and expired keys are
	// indistinguishable: both return ErrSessionNotFound.
	Get(ctx context.Context, id string) (domainauth.Session, error)

	// Update replaces the token fields of an existing record and resets the
	// TTL to the full window. Unlocked read-modify-write; concurrent updates
	// are last-writer-wins.
	Update(ctx context.Context, id string, tokens domainauth.TokenPair) error

	// Delete removes the record. Idempotent; unknown and empty ids are no-ops.
	Delete(ctx context.Context, id string) error
}

// SignupResult is what the identity provider reports for a sign-up attempt.
// When the provider requires email confirmation it returns no tokens and the
// caller must not create a session.
type SignupResult struct {
	Identity                  domainauth.Identity
	RequiresEmailConfirmation bool
	Message                   string
}

// IdentityProvider is the external identity service. Only its success/failure
// contract and the token/expiry shape matter here; token cryptography and
// password storage are its concern.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (domainauth.Identity, error)
	SignUp(ctx context.Context, email, password, name string) (SignupResult, error)
	SignOut(ctx context.Context, accessToken string) error

	// Refresh exchanges a refresh token for a fresh pair. A rejected or
	// expired refresh token returns ErrRefreshRejected.
	Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error)

	// CurrentUser resolves the identity behind an existing provider session,
	// if any. No live session returns ErrNoProviderSession.
	CurrentUser(ctx context.Context) (domainauth.Identity, error)

	ResetPassword(ctx context.Context, email string) (string, error)
}

// ProfileStore reads user projections by user id. A missing profile returns
// ErrProfileNotFound; callers substitute a default projection.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (domainauth.UserProjection, error)

	// Upsert creates or refreshes the profile row for a user. Flags
	// (is_admin, store_verified) are preserved on conflict.
	Upsert(ctx context.Context, profile domainauth.UserProjection) (domainauth.UserProjection, error)
}

// CacheRepository defines byte-oriented caching operations used for
// read-through projection caching.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) (bool, error)
}

// ProviderError carries a failure reported by the identity provider together
// with the human-readable message the provider returned. The message is
// surfaced verbatim to callers of login/signup/reset-password.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("identity provider error (status %d)", e.StatusCode)
}

// ErrSessionNotFound is returned when a session record is absent or expired.
var ErrSessionNotFound error = sessionNotFoundError{}

type sessionNotFoundError struct{}

func (sessionNotFoundError) Error() string { return "session not found" }

// ErrProfileNotFound is returned when no profile row exists for a user.
var ErrProfileNotFound error = profileNotFoundError{}

type profileNotFoundError struct{}

func (profileNotFoundError) Error() string { return "profile not found" }

// ErrRefreshRejected is returned by IdentityProvider.Refresh when the refresh
// token is expired or revoked.
var ErrRefreshRejected error = refreshRejectedError{}

type refreshRejectedError struct{}

func (refreshRejectedError) Error() string { return "refresh token rejected" }

// ErrNoProviderSession is returned by IdentityProvider.CurrentUser when the
// provider has no live session to rebuild from.
var ErrNoProviderSession error = noProviderSessionError{}

type noProviderSessionError struct{}

func (noProviderSessionError) Error() string { return "no provider session" }
