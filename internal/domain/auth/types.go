package auth

// Package auth contains domain-level types for sessions and authentication
// state. It is pure and free of framework/adapter concerns.

import "time"

// Session is the server-side record linking an opaque session id to the
// identity provider's tokens. ID is carried in the session_id cookie; the
// remaining fields are the JSON value persisted in the session store.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    int64     `json:"expires_at"` // epoch milliseconds, access token expiry
	CreatedAt    time.Time `json:"created_at"`
}

// NeedsRefresh reports whether the access token's remaining lifetime at now is
// no more than threshold. Callers must check session existence themselves; a
// zero Session reports true.
func (s Session) NeedsRefresh(now time.Time, threshold time.Duration) bool {
	return s.ExpiresAt-now.UnixMilli() <= threshold.Milliseconds()
}

// ApplyTokens replaces the token fields with a fresh pair. Used on refresh so
// the record is swapped as a unit rather than field by field.
func (s *Session) ApplyTokens(t TokenPair) {
	s.AccessToken = t.AccessToken
	s.RefreshToken = t.RefreshToken
	s.ExpiresAt = t.ExpiresAt
}

// TokenPair is the token/expiry shape returned by the identity provider on
// sign-in and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // epoch milliseconds
}

// Identity represents the authenticated principal returned by the identity
// provider together with its live tokens.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Tokens TokenPair
}

// UserProjection is the read-through profile view returned to clients. It is
// fetched by user id and is not part of the session record.
type UserProjection struct {
	ID            string  `json:"id"                   db:"user_id"`
	Email         string  `json:"email"                db:"email"`
	Name          string  `json:"name"                 db:"name"`
	IsAdmin       bool    `json:"is_admin"             db:"is_admin"`
	StoreVerified bool    `json:"store_verified"       db:"store_verified"`
	AvatarURL     *string `json:"avatar_url,omitempty" db:"avatar_url"`
}

// DefaultProjection returns the minimal projection substituted when no profile
// row exists for the user. It never grants admin or seller verification.
func DefaultProjection(userID string) UserProjection {
	return UserProjection{ID: userID}
}

// Status is the authentication status reported to clients.
type Status struct {
	Authenticated bool            `json:"authenticated"`
	User          *UserProjection `json:"user"`
}

// Anonymous is the status returned whenever a session is missing, expired, or
// failed verification (fail-closed).
func Anonymous() Status {
	return Status{Authenticated: false, User: nil}
}
