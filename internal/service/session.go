package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

// DefaultRefreshThreshold is how close to token expiry a status check starts
// refreshing proactively.
const DefaultRefreshThreshold = 5 * time.Minute

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Provider         ports.IdentityProvider
	Sessions         ports.SessionStore
	Profiles         *ProfileService
	RefreshThreshold time.Duration
	Logger           *slog.Logger
	Now              func() time.Time // test hook
}

// SessionService coordinates session lookup, proactive token refresh, and
// the auth flows against the identity provider. Refresh failures fail
// closed: the session is deleted and the caller is told to clear the cookie.
type SessionService struct {
	provider         ports.IdentityProvider
	sessions         ports.SessionStore
	profiles         *ProfileService
	refreshThreshold time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	threshold := opts.RefreshThreshold
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		provider:         opts.Provider,
		sessions:         opts.Sessions,
		profiles:         opts.Profiles,
		refreshThreshold: threshold,
		logger:           logger,
		now:              now,
	}
}

// StatusResult is the outcome of a status check or refresh. NewSessionID is
// set when a session was rebuilt from a live provider session and the caller
// must issue a new cookie; ClearSession is set when the presented session is
// dead and the cookie must be dropped.
type StatusResult struct {
	Status       domainauth.Status
	NewSessionID string
	ClearSession bool
}

// LoginResult carries the new session and resolved status after a successful
// login or signup.
type LoginResult struct {
	SessionID string
	Status    domainauth.Status
}

// SignupResult extends LoginResult for providers that require email
// confirmation before issuing tokens. When RequiresEmailConfirmation is set,
// SessionID is empty and Status is anonymous.
type SignupResult struct {
	LoginResult
	RequiresEmailConfirmation bool
	Message                   string
}

// CheckStatus resolves the authentication status behind sessionID. It never
// fails: any error path degrades to an anonymous status. An empty or unknown
// session id is given one chance to rebuild from a live provider session.
func (s *SessionService) CheckStatus(ctx context.Context, sessionID string) StatusResult {
	if sessionID == "" {
		return s.rebuildFromProvider(ctx, false)
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return s.rebuildFromProvider(ctx, true)
		}
		// Transient store failure. Fail closed for this request but keep
		// the cookie so the session can recover.
		s.logger.ErrorContext(ctx, "session lookup failed", "err", err)
		return StatusResult{Status: domainauth.Anonymous()}
	}

	if sess.NeedsRefresh(s.now(), s.refreshThreshold) {
		refreshed, ok := s.refreshSession(ctx, &sess)
		if !ok {
			return refreshed
		}
	}

	return StatusResult{Status: s.statusFor(ctx, sess)}
}

// ForceRefresh refreshes the session's tokens regardless of how close they
// are to expiry. Returns ErrUnauthenticated when no session id is presented
// and ErrSessionExpired when the session is gone or the provider rejects the
// refresh token. Success carries no user projection; callers that need one
// run a status check.
func (s *SessionService) ForceRefresh(ctx context.Context, sessionID string) (StatusResult, error) {
	if sessionID == "" {
		return StatusResult{Status: domainauth.Anonymous()}, ErrUnauthenticated
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return StatusResult{Status: domainauth.Anonymous(), ClearSession: true}, ErrSessionExpired
		}
		return StatusResult{Status: domainauth.Anonymous()}, fmt.Errorf("get session: %w", err)
	}

	result, ok := s.refreshSession(ctx, &sess)
	if !ok {
		return result, ErrSessionExpired
	}
	return StatusResult{Status: domainauth.Status{Authenticated: true}}, nil
}

// LoginInput groups parameters for Login.
type LoginInput struct {
	Email    string
	Password string
}

// Login authenticates against the identity provider and creates a session.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, errors.New("email is required")
	}
	if input.Password == "" {
		return nil, errors.New("password is required")
	}

	identity, err := s.provider.SignIn(ctx, strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		return nil, newAuthError("Login failed", err)
	}

	sessionID, status, err := s.establishSession(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &LoginResult{SessionID: sessionID, Status: status}, nil
}

// SignupInput groups parameters for Signup.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// Signup registers a new account. When the provider requires email
// confirmation no session is created and the provider's message is passed
// through for display.
func (s *SessionService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, errors.New("email is required")
	}
	if input.Password == "" {
		return nil, errors.New("password is required")
	}

	result, err := s.provider.SignUp(ctx, strings.TrimSpace(input.Email), input.Password, strings.TrimSpace(input.Name))
	if err != nil {
		return nil, newAuthError("Signup failed", err)
	}

	if result.RequiresEmailConfirmation {
		return &SignupResult{
			LoginResult:               LoginResult{Status: domainauth.Anonymous()},
			RequiresEmailConfirmation: true,
			Message:                   result.Message,
		}, nil
	}

	sessionID, status, err := s.establishSession(ctx, result.Identity)
	if err != nil {
		return nil, err
	}
	return &SignupResult{LoginResult: LoginResult{SessionID: sessionID, Status: status}}, nil
}

// Signout ends the session. The provider sign-out is best effort; the local
// session is always deleted.
func (s *SessionService) Signout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		if err := s.provider.SignOut(ctx, sess.AccessToken); err != nil {
			s.logger.WarnContext(ctx, "provider signout failed", "err", err)
		}
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ResetPassword asks the provider to start a password recovery flow and
// returns the provider's confirmation message.
func (s *SessionService) ResetPassword(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", errors.New("email is required")
	}
	msg, err := s.provider.ResetPassword(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", newAuthError("Password reset failed", err)
	}
	return msg, nil
}

// refreshSession exchanges the session's refresh token and persists the new
// pair. On any failure the session is deleted and the caller is told to
// clear the cookie.
func (s *SessionService) refreshSession(ctx context.Context, sess *domainauth.Session) (StatusResult, bool) {
	tokens, err := s.provider.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		s.logger.InfoContext(ctx, "token refresh failed; ending session",
			"session_id", sess.ID, "err", err)
		s.dropSession(ctx, sess.ID)
		return StatusResult{Status: domainauth.Anonymous(), ClearSession: true}, false
	}

	if err := s.sessions.Update(ctx, sess.ID, tokens); err != nil {
		s.logger.ErrorContext(ctx, "session update failed; ending session",
			"session_id", sess.ID, "err", err)
		s.dropSession(ctx, sess.ID)
		return StatusResult{Status: domainauth.Anonymous(), ClearSession: true}, false
	}

	sess.ApplyTokens(tokens)
	return StatusResult{}, true
}

// rebuildFromProvider asks the provider whether it still holds a live
// session and, if so, mints a fresh local session for it.
func (s *SessionService) rebuildFromProvider(ctx context.Context, clearStale bool) StatusResult {
	identity, err := s.provider.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrNoProviderSession) {
			s.logger.WarnContext(ctx, "provider session lookup failed", "err", err)
		}
		return StatusResult{Status: domainauth.Anonymous(), ClearSession: clearStale}
	}

	sessionID := uuid.NewString()
	sess := s.newSession(sessionID, identity)
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "session create failed during rebuild", "err", err)
		return StatusResult{Status: domainauth.Anonymous(), ClearSession: clearStale}
	}

	return StatusResult{
		Status:       s.statusFor(ctx, sess),
		NewSessionID: sessionID,
		ClearSession: clearStale,
	}
}

func (s *SessionService) establishSession(ctx context.Context, identity domainauth.Identity) (string, domainauth.Status, error) {
	sessionID := uuid.NewString()
	sess := s.newSession(sessionID, identity)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", domainauth.Anonymous(), fmt.Errorf("create session: %w", err)
	}

	user := s.syncProfile(ctx, identity)
	return sessionID, domainauth.Status{Authenticated: true, User: &user}, nil
}

// syncProfile upserts the profile row from the provider identity. Failures
// degrade to whatever projection can be resolved; login never fails on the
// profile store.
func (s *SessionService) syncProfile(ctx context.Context, identity domainauth.Identity) domainauth.UserProjection {
	if s.profiles == nil {
		return domainauth.DefaultProjection(identity.UserID)
	}

	saved, err := s.profiles.Save(ctx, domainauth.UserProjection{
		ID:    identity.UserID,
		Email: identity.Email,
		Name:  identity.Name,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "profile sync failed", "user_id", identity.UserID, "err", err)
		return s.profiles.Projection(ctx, identity.UserID)
	}
	return saved
}

func (s *SessionService) statusFor(ctx context.Context, sess domainauth.Session) domainauth.Status {
	user := domainauth.DefaultProjection(sess.UserID)
	if s.profiles != nil {
		user = s.profiles.Projection(ctx, sess.UserID)
	}
	return domainauth.Status{Authenticated: true, User: &user}
}

func (s *SessionService) newSession(id string, identity domainauth.Identity) domainauth.Session {
	return domainauth.Session{
		ID:           id,
		UserID:       identity.UserID,
		AccessToken:  identity.Tokens.AccessToken,
		RefreshToken: identity.Tokens.RefreshToken,
		ExpiresAt:    identity.Tokens.ExpiresAt,
		CreatedAt:    s.now().UTC(),
	}
}

func (s *SessionService) dropSession(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "session delete failed", "session_id", sessionID, "err", err)
	}
}
