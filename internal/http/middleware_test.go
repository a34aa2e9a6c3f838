package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithStatus(status domainauth.Status) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	return req.WithContext(SetStatusInContext(req.Context(), status))
}

func authedStatus(user domainauth.UserProjection) domainauth.Status {
	return domainauth.Status{Authenticated: true, User: &user}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithStatus(domainauth.Anonymous()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithStatus(authedStatus(domainauth.UserProjection{ID: "u1"})))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_NoStatusInContext(t *testing.T) {
	handler := RequireAuth()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithStatus(authedStatus(domainauth.UserProjection{ID: "u1"})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithStatus(authedStatus(domainauth.UserProjection{ID: "u1", IsAdmin: true})))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireVerifiedSeller(t *testing.T) {
	handler := RequireVerifiedSeller()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithStatus(authedStatus(domainauth.UserProjection{ID: "u1", IsAdmin: true})))
	assert.Equal(t, http.StatusForbidden, rec.Code, "admin does not imply verified seller")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithStatus(authedStatus(domainauth.UserProjection{ID: "u1", StoreVerified: true})))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResolveStatus_ProtectedRoute(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedSession(t, "s1", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "s1"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"user-1"`)
}

func TestResolveStatus_ProtectedRouteAnonymous(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	handler := Recover(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggingMiddleware_PreservesStatus(t *testing.T) {
	handler := Logging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
