package httpx

import (
	"log/slog"
	"net/http"
)

// RouterOptions groups dependencies for NewRouter.
type RouterOptions struct {
	Sessions *SessionHandlers
	Logger   *slog.Logger
}

// NewRouter builds the HTTP routing table with logging and panic recovery
// applied to every route.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := opts.Sessions

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthCheck)

	mux.HandleFunc("GET /auth/session", sessions.Session)
	mux.HandleFunc("POST /auth/session/refresh", sessions.Refresh)
	mux.HandleFunc("POST /auth/login", sessions.Login)
	mux.HandleFunc("POST /auth/signup", sessions.Signup)
	mux.HandleFunc("POST /auth/signout", sessions.Signout)
	mux.HandleFunc("POST /auth/reset-password", sessions.ResetPassword)

	resolve := ResolveStatus(sessions)
	mux.Handle("GET /auth/me", resolve(RequireAuth()(http.HandlerFunc(currentUser))))

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

// HealthCheck reports liveness.
// GET /healthz.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentUser returns the authenticated user's projection.
// GET /auth/me.
func currentUser(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	WriteJSON(w, http.StatusOK, user)
}
