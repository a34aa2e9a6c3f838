package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
)

// Logging logs each request with method, path, status and duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover converts panics into 500 responses.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"panic", rec, "path", r.URL.Path)
					WriteError(w, ErrorParams{
						Code:    http.StatusInternalServerError,
						ErrCode: "internal_error",
						Err:     errors.New("internal server error"),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveStatus resolves the auth status behind the session cookie once per
// request and stores it in the context. Cookie directives from the
// coordinator (rotation, clearing) are applied here so every route benefits.
func ResolveStatus(h *SessionHandlers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := h.Svc.CheckStatus(r.Context(), sessionIDFromRequest(r))
			h.applyCookieDirectives(w, result)
			ctx := SetStatusInContext(r.Context(), result.Status)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose context has no authenticated status.
// Must run after ResolveStatus.
func RequireAuth() func(http.Handler) http.Handler {
	return requireUser(func(*domainauth.UserProjection) bool { return true },
		"unauthenticated", "authentication required")
}

// RequireAdmin rejects requests from non-admin users.
func RequireAdmin() func(http.Handler) http.Handler {
	return requireUser(func(u *domainauth.UserProjection) bool { return u.IsAdmin },
		"forbidden", "admin access required")
}

// RequireVerifiedSeller rejects requests from users without a verified store.
func RequireVerifiedSeller() func(http.Handler) http.Handler {
	return requireUser(func(u *domainauth.UserProjection) bool { return u.StoreVerified },
		"forbidden", "verified seller access required")
}

func requireUser(allowed func(*domainauth.UserProjection) bool, errCode, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "unauthenticated",
					Err:     errors.New("authentication required"),
				})
				return
			}
			if !allowed(user) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: errCode,
					Err:     errors.New(msg),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
