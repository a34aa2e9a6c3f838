package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/brightmarket/storefront/internal/service"
)

const sessionCookieName = "session_id"

// DefaultSessionCookieMaxAge matches the session store's TTL window.
const DefaultSessionCookieMaxAge = 7 * 24 * time.Hour

// SessionServiceInterface defines the session service operations the handlers
// depend on.
type SessionServiceInterface interface {
	CheckStatus(ctx context.Context, sessionID string) service.StatusResult
	ForceRefresh(ctx context.Context, sessionID string) (service.StatusResult, error)
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	Signup(ctx context.Context, input service.SignupInput) (*service.SignupResult, error)
	Signout(ctx context.Context, sessionID string) error
	ResetPassword(ctx context.Context, email string) (string, error)
}

// SessionHandlers provides HTTP handlers for the session and auth endpoints.
type SessionHandlers struct {
	Svc           SessionServiceInterface
	CookieDomain  string
	SecureCookies bool
	CookieMaxAge  time.Duration
	Logger        *slog.Logger
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Session reports the authentication status behind the request's session
// cookie. Always answers 200; an unusable session yields an anonymous status
// and clears the cookie.
// GET /auth/session.
func (h *SessionHandlers) Session(w http.ResponseWriter, r *http.Request) {
	result := h.Svc.CheckStatus(r.Context(), sessionIDFromRequest(r))
	h.applyCookieDirectives(w, result)
	WriteJSON(w, http.StatusOK, result.Status)
}

// Refresh forces a token refresh for the current session.
// POST /auth/session/refresh.
func (h *SessionHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.ForceRefresh(r.Context(), sessionIDFromRequest(r))
	if err != nil {
		h.applyCookieDirectives(w, result)
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "unauthenticated", Err: err})
		case errors.Is(err, service.ErrSessionExpired):
			WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "session_expired", Err: err})
		default:
			h.logger().ErrorContext(r.Context(), "force refresh failed", "err", err)
			WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "refresh_failed", Err: errors.New("could not refresh session")})
		}
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password and issues a session cookie.
// POST /auth/login.
func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeAuthFlowError(w, r, err, http.StatusUnauthorized, "login_failed")
		return
	}

	h.setSessionCookie(w, result.SessionID)
	WriteJSON(w, http.StatusOK, result.Status)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signupResponse struct {
	Authenticated             bool   `json:"authenticated"`
	User                      any    `json:"user"`
	RequiresEmailConfirmation bool   `json:"requires_email_confirmation,omitempty"`
	Message                   string `json:"message,omitempty"`
}

// Signup registers a new account. When the provider requires email
// confirmation no cookie is issued and the provider message is returned.
// POST /auth/signup.
func (h *SessionHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeAuthFlowError(w, r, err, http.StatusBadRequest, "signup_failed")
		return
	}

	if result.RequiresEmailConfirmation {
		WriteJSON(w, http.StatusOK, signupResponse{
			RequiresEmailConfirmation: true,
			Message:                   result.Message,
		})
		return
	}

	h.setSessionCookie(w, result.SessionID)
	WriteJSON(w, http.StatusCreated, signupResponse{
		Authenticated: result.Status.Authenticated,
		User:          result.Status.User,
	})
}

// Signout ends the session and clears the cookie. The cookie is cleared even
// when the server-side teardown fails.
// POST /auth/signout.
func (h *SessionHandlers) Signout(w http.ResponseWriter, r *http.Request) {
	err := h.Svc.Signout(r.Context(), sessionIDFromRequest(r))
	h.clearSessionCookie(w)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "signout failed", "err", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "signout_failed", Err: errors.New("could not end session")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPassword starts a password recovery flow.
// POST /auth/reset-password.
func (h *SessionHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	msg, err := h.Svc.ResetPassword(r.Context(), req.Email)
	if err != nil {
		h.writeAuthFlowError(w, r, err, http.StatusBadRequest, "reset_failed")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// writeAuthFlowError maps service errors to responses. AuthError carries a
// user-facing message and keeps the fallback status; anything else is treated
// as a bad request with the error text.
func (h *SessionHandlers) writeAuthFlowError(w http.ResponseWriter, r *http.Request, err error, code int, errCode string) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		WriteJSON(w, code, map[string]string{"error": errCode, "message": authErr.UserMessage()})
		return
	}
	h.logger().InfoContext(r.Context(), "auth flow rejected", "err", err)
	WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: errCode, Err: err})
}

// applyCookieDirectives issues or clears the session cookie per the
// coordinator's result. A rebuilt session sets the new cookie last so it wins
// over the clear.
func (h *SessionHandlers) applyCookieDirectives(w http.ResponseWriter, result service.StatusResult) {
	if result.ClearSession && result.NewSessionID == "" {
		h.clearSessionCookie(w)
	}
	if result.NewSessionID != "" {
		h.setSessionCookie(w, result.NewSessionID)
	}
}

func (h *SessionHandlers) setSessionCookie(w http.ResponseWriter, sessionID string) {
	maxAge := h.CookieMaxAge
	if maxAge <= 0 {
		maxAge = DefaultSessionCookieMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		MaxAge:   int(maxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *SessionHandlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
