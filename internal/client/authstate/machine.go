package authstate

// Package authstate models client-side authentication state as an explicit
// phase machine driven by a pure reducer. UI code reads one enum instead of
// juggling loading/user/error flag combinations.

import (
	"context"
	"sync"

	"github.com/brightmarket/storefront/internal/client/authclient"
	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
)

// Phase is the client's authentication phase.
type Phase int

const (
	// PhaseInitializing is the state before the first session check resolves.
	PhaseInitializing Phase = iota
	// PhaseAnonymous is a resolved signed-out state.
	PhaseAnonymous
	// PhaseAuthenticated is a resolved signed-in state with a user attached.
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the machine's full state. User is non-nil exactly in
// PhaseAuthenticated. Err is an overlay describing the most recent failed
// operation; it never blocks a phase transition and is cleared by the next
// successful event.
type State struct {
	Phase Phase
	User  *domainauth.UserProjection
	Err   string
}

// Event drives state transitions.
type Event interface{ isEvent() }

// StatusResolved carries the outcome of a session check.
type StatusResolved struct{ Status domainauth.Status }

// SignedIn carries the status returned by a successful login or signup.
type SignedIn struct{ Status domainauth.Status }

// SignInFailed carries the server's message for a rejected login or signup.
// The current phase is kept.
type SignInFailed struct{ Message string }

// SignedOut marks an explicit sign-out.
type SignedOut struct{}

// SessionExpired marks a session the server refused to keep alive.
type SessionExpired struct{}

func (StatusResolved) isEvent() {}
func (SignedIn) isEvent()       {}
func (SignInFailed) isEvent()   {}
func (SignedOut) isEvent()      {}
func (SessionExpired) isEvent() {}

// Reduce computes the next state from the current state and an event. It is
// pure: no I/O, no side effects, same inputs give the same output.
func Reduce(state State, event Event) State {
	switch e := event.(type) {
	case StatusResolved:
		return stateFromStatus(e.Status)
	case SignedIn:
		return stateFromStatus(e.Status)
	case SignInFailed:
		next := state
		next.Err = e.Message
		return next
	case SignedOut, SessionExpired:
		return State{Phase: PhaseAnonymous}
	default:
		return state
	}
}

func stateFromStatus(status domainauth.Status) State {
	if !status.Authenticated || status.User == nil {
		return State{Phase: PhaseAnonymous}
	}
	user := *status.User
	return State{Phase: PhaseAuthenticated, User: &user}
}

// Machine holds the current state and feeds reducer events from the auth
// client's operations. Safe for concurrent use.
type Machine struct {
	client *authclient.Client

	mu    sync.RWMutex
	state State

	readyOnce sync.Once
	ready     chan struct{}
}

// NewMachine constructs a Machine in PhaseInitializing.
func NewMachine(client *authclient.Client) *Machine {
	return &Machine{
		client: client,
		state:  State{Phase: PhaseInitializing},
		ready:  make(chan struct{}),
	}
}

// Initialize resolves the initial session status. The first call closes the
// Ready channel; later calls behave like CheckSession.
func (m *Machine) Initialize(ctx context.Context) State {
	status := m.client.Initialize(ctx)
	state := m.Dispatch(StatusResolved{Status: status})
	m.readyOnce.Do(func() { close(m.ready) })
	return state
}

// Ready is closed once the first Initialize has resolved. Guards wait on it
// so routing decisions never observe PhaseInitializing.
func (m *Machine) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until the machine is initialized or ctx is done.
func (m *Machine) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Dispatch applies an event through the reducer and returns the new state.
func (m *Machine) Dispatch(event Event) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, event)
	return m.state
}

// Login authenticates through the client and transitions the machine. A
// rejected login surfaces the server's message on State.Err and keeps the
// current phase.
func (m *Machine) Login(ctx context.Context, email, password string) (State, error) {
	status, err := m.client.Login(ctx, email, password)
	if err != nil {
		return m.Dispatch(SignInFailed{Message: err.Error()}), err
	}
	return m.Dispatch(SignedIn{Status: status}), nil
}

// Signup registers through the client. A requires-email-confirmation outcome
// leaves the machine anonymous; the caller reads the message from the
// returned outcome.
func (m *Machine) Signup(ctx context.Context, email, password, name string) (State, authclient.SignupOutcome, error) {
	outcome, err := m.client.Signup(ctx, email, password, name)
	if err != nil {
		return m.Dispatch(SignInFailed{Message: err.Error()}), outcome, err
	}
	if !outcome.Status.Authenticated {
		return m.State(), outcome, nil
	}
	return m.Dispatch(SignedIn{Status: outcome.Status}), outcome, nil
}

// Signout ends the session. The machine goes anonymous even when the server
// call fails; the local session is gone either way.
func (m *Machine) Signout(ctx context.Context) error {
	err := m.client.Signout(ctx)
	m.Dispatch(SignedOut{})
	return err
}

// CheckSession re-resolves the status and transitions the machine.
func (m *Machine) CheckSession(ctx context.Context) State {
	status := m.client.CheckSession(ctx)
	return m.Dispatch(StatusResolved{Status: status})
}

// Close stops the client's background refresh loop. The machine keeps its
// last state.
func (m *Machine) Close() {
	m.client.Close()
}
