package authstate

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmarket/storefront/internal/client/authclient"
	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	httpx "github.com/brightmarket/storefront/internal/http"
	mockauth "github.com/brightmarket/storefront/internal/mocks/auth"
	"github.com/brightmarket/storefront/internal/ports"
	"github.com/brightmarket/storefront/internal/service"
)

func authedTestStatus(user domainauth.UserProjection) domainauth.Status {
	return domainauth.Status{Authenticated: true, User: &user}
}

func TestReduce_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
		want  Phase
	}{
		{"initializing resolves anonymous", State{Phase: PhaseInitializing}, StatusResolved{Status: domainauth.Anonymous()}, PhaseAnonymous},
		{"initializing resolves authenticated", State{Phase: PhaseInitializing}, StatusResolved{Status: authedTestStatus(domainauth.UserProjection{ID: "u1"})}, PhaseAuthenticated},
		{"anonymous signs in", State{Phase: PhaseAnonymous}, SignedIn{Status: authedTestStatus(domainauth.UserProjection{ID: "u1"})}, PhaseAuthenticated},
		{"authenticated signs out", State{Phase: PhaseAuthenticated}, SignedOut{}, PhaseAnonymous},
		{"authenticated expires", State{Phase: PhaseAuthenticated}, SessionExpired{}, PhaseAnonymous},
		{"authenticated re-resolves anonymous", State{Phase: PhaseAuthenticated}, StatusResolved{Status: domainauth.Anonymous()}, PhaseAnonymous},
		{"signed in without user stays anonymous", State{Phase: PhaseAnonymous}, SignedIn{Status: domainauth.Status{Authenticated: true}}, PhaseAnonymous},
		{"failed sign-in keeps phase", State{Phase: PhaseAnonymous}, SignInFailed{Message: "nope"}, PhaseAnonymous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.state, tt.event)
			assert.Equal(t, tt.want, got.Phase)
			if tt.want == PhaseAuthenticated {
				assert.NotNil(t, got.User)
			} else {
				assert.Nil(t, got.User)
			}
		})
	}
}

func TestReduce_ErrorOverlay(t *testing.T) {
	state := State{Phase: PhaseAnonymous}

	state = Reduce(state, SignInFailed{Message: "Invalid login credentials"})
	assert.Equal(t, PhaseAnonymous, state.Phase)
	assert.Equal(t, "Invalid login credentials", state.Err)

	user := domainauth.UserProjection{ID: "u1"}
	state = Reduce(state, SignedIn{Status: authedTestStatus(user)})
	assert.Equal(t, PhaseAuthenticated, state.Phase)
	assert.Empty(t, state.Err, "successful event clears the error overlay")
}

func TestReduce_IsPure(t *testing.T) {
	state := State{Phase: PhaseAuthenticated, User: &domainauth.UserProjection{ID: "u1"}}
	_ = Reduce(state, SignedOut{})
	assert.Equal(t, PhaseAuthenticated, state.Phase, "input state must not be mutated")
	assert.NotNil(t, state.User)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "initializing", PhaseInitializing.String())
	assert.Equal(t, "anonymous", PhaseAnonymous.String())
	assert.Equal(t, "authenticated", PhaseAuthenticated.String())
}

type machineFixture struct {
	machine  *Machine
	provider *mockauth.MockIdentityProvider
	sessions *mockauth.MemorySessionStore
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()

	f := &machineFixture{
		provider: mockauth.NewMockIdentityProvider(),
		sessions: mockauth.NewMemorySessionStore(),
	}
	svc := service.NewSessionService(service.SessionServiceOptions{
		Provider: f.provider,
		Sessions: f.sessions,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Profiles: mockauth.NewMemoryProfileStore(),
			Cache:    mockauth.NewMemoryCache(),
		}),
	})
	server := httptest.NewServer(httpx.NewRouter(httpx.RouterOptions{
		Sessions: &httpx.SessionHandlers{Svc: svc},
	}))
	t.Cleanup(server.Close)

	client, err := authclient.New(authclient.Options{BaseURL: server.URL, RefreshInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	f.machine = NewMachine(client)
	return f
}

func TestMachine_InitializeAnonymous(t *testing.T) {
	f := newMachineFixture(t)

	assert.Equal(t, PhaseInitializing, f.machine.State().Phase)

	state := f.machine.Initialize(context.Background())
	assert.Equal(t, PhaseAnonymous, state.Phase)

	select {
	case <-f.machine.Ready():
	default:
		t.Fatal("Ready channel should be closed after Initialize")
	}
}

func TestMachine_LoginAndSignout(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()
	f.machine.Initialize(ctx)

	state, err := f.machine.Login(ctx, "user@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, PhaseAuthenticated, state.Phase)
	require.NotNil(t, state.User)
	assert.Equal(t, "user-1", state.User.ID)

	require.NoError(t, f.machine.Signout(ctx))
	assert.Equal(t, PhaseAnonymous, f.machine.State().Phase)
}

func TestMachine_LoginRejectedSetsErrOverlay(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()
	f.machine.Initialize(ctx)

	f.provider.SignInFunc = func(context.Context, string, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, &ports.ProviderError{StatusCode: 400, Message: "Invalid login credentials"}
	}

	state, err := f.machine.Login(ctx, "user@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, PhaseAnonymous, state.Phase)
	assert.Contains(t, state.Err, "Invalid login credentials")
}

func TestMachine_SignupRequiresConfirmationStaysAnonymous(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()
	f.machine.Initialize(ctx)

	f.provider.SignUpFunc = func(_ context.Context, email, _, name string) (ports.SignupResult, error) {
		return ports.SignupResult{
			Identity:                  domainauth.Identity{UserID: "u1", Email: email, Name: name},
			RequiresEmailConfirmation: true,
			Message:                   "Check your email",
		}, nil
	}

	state, outcome, err := f.machine.Signup(ctx, "new@example.com", "pw", "New User")
	require.NoError(t, err)
	assert.Equal(t, PhaseAnonymous, state.Phase)
	assert.True(t, outcome.RequiresEmailConfirmation)
	assert.Equal(t, "Check your email", outcome.Message)
}

func TestMachine_InitializeIdempotentReady(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	f.machine.Initialize(ctx)
	f.machine.Initialize(ctx)

	require.NoError(t, f.machine.WaitReady(ctx))
}

func TestMachine_WaitReadyHonorsContext(t *testing.T) {
	f := newMachineFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := f.machine.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
