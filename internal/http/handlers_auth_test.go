package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	mockauth "github.com/brightmarket/storefront/internal/mocks/auth"
	"github.com/brightmarket/storefront/internal/ports"
	"github.com/brightmarket/storefront/internal/service"
)

type handlerFixture struct {
	handler  http.Handler
	provider *mockauth.MockIdentityProvider
	sessions *mockauth.MemorySessionStore
	profiles *mockauth.MemoryProfileStore
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		provider: mockauth.NewMockIdentityProvider(),
		sessions: mockauth.NewMemorySessionStore(),
		profiles: mockauth.NewMemoryProfileStore(),
	}
	svc := service.NewSessionService(service.SessionServiceOptions{
		Provider: f.provider,
		Sessions: f.sessions,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Profiles: f.profiles,
			Cache:    mockauth.NewMemoryCache(),
		}),
	})
	f.handler = NewRouter(RouterOptions{
		Sessions: &SessionHandlers{Svc: svc},
	})
	return f
}

func (f *handlerFixture) seedSession(t *testing.T, id string, ttl time.Duration) {
	t.Helper()
	require.NoError(t, f.sessions.Create(context.Background(), domainauth.Session{
		ID:           id,
		UserID:       "user-1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(ttl).UnixMilli(),
		CreatedAt:    time.Now(),
	}))
}

func (f *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionEndpoint_Authenticated(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedSession(t, "s1", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "s1"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	assert.Contains(t, rec.Body.String(), `"id":"user-1"`)
}

func TestSessionEndpoint_NoCookieStill200(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/session", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	assert.Nil(t, sessionCookie(rec), "no cookie churn for anonymous visitors")
}

func TestSessionEndpoint_StaleCookieCleared(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "gone"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestSessionEndpoint_RebuildIssuesNewCookie(t *testing.T) {
	f := newHandlerFixture(t)
	f.provider.CurrentUserFunc = func(context.Context) (domainauth.Identity, error) {
		return f.provider.DefaultIdentity, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "stale"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)

	issued := sessionCookie(rec)
	require.NotNil(t, issued)
	assert.NotEmpty(t, issued.Value)
	assert.NotEqual(t, "stale", issued.Value)
	assert.True(t, issued.HttpOnly)
}

func TestSessionEndpoint_RefreshFailureClearsCookie(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedSession(t, "s1", time.Minute)
	f.provider.RefreshFunc = func(context.Context, string) (domainauth.TokenPair, error) {
		return domainauth.TokenPair{}, ports.ErrRefreshRejected
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "s1"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestRefreshEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedSession(t, "s1", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/auth/session/refresh", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "s1"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String(), "refresh answers success only, no projection")
	assert.Equal(t, 1, f.provider.RefreshCalls)
}

func TestRefreshEndpoint_NoSession401(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/auth/session/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthenticated")
}

func TestLoginEndpoint_Success(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"pw"}`))
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)

	issued := sessionCookie(rec)
	require.NotNil(t, issued)
	assert.NotEmpty(t, issued.Value)
	assert.True(t, issued.HttpOnly)
	assert.Equal(t, "/", issued.Path)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	f := newHandlerFixture(t)
	f.provider.SignInFunc = func(context.Context, string, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, &ports.ProviderError{StatusCode: 400, Message: "Invalid login credentials"}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"bad"}`))
	rec := f.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid login credentials")
	assert.Nil(t, sessionCookie(rec))
}

func TestLoginEndpoint_InvalidJSON(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupEndpoint_AutoConfirm(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"new@example.com","password":"pw","name":"New"}`))
	rec := f.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, sessionCookie(rec))
}

func TestSignupEndpoint_RequiresConfirmation(t *testing.T) {
	f := newHandlerFixture(t)
	f.provider.SignUpFunc = func(context.Context, string, string, string) (ports.SignupResult, error) {
		return ports.SignupResult{RequiresEmailConfirmation: true, Message: "Check your email"}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"new@example.com","password":"pw"}`))
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check your email")
	assert.Nil(t, sessionCookie(rec))
}

func TestSignoutEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedSession(t, "s1", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "s1"})
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, 0, f.sessions.Len())

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestSignoutEndpoint_StoreFailure500(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedSession(t, "s1", time.Hour)
	f.sessions.DeleteErr = errors.New("store down")

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "s1"})
	rec := f.do(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "signout_failed")

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared, "the cookie is cleared even when teardown fails")
	assert.Negative(t, cleared.MaxAge)
}

func TestResetPasswordEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password",
		strings.NewReader(`{"email":"user@example.com"}`))
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password reset email sent")
}

func TestHealthz(t *testing.T) {
	f := newHandlerFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
