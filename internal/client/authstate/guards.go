package authstate

import "context"

const (
	// DefaultLoginPath is where unauthenticated visitors are sent.
	DefaultLoginPath = "/login"
	// DefaultHomePath is where authenticated non-admins are sent.
	DefaultHomePath = "/"
	// DefaultSetupPath is where sellers without a verified store are sent.
	DefaultSetupPath = "/store/setup"
)

// Guard makes routing decisions from the machine's state. The redirect
// callback is injected so the guard stays free of any concrete router.
type Guard struct {
	machine   *Machine
	redirect  func(target string)
	loginPath string
	homePath  string
	setupPath string
}

// GuardOptions groups parameters for NewGuard.
type GuardOptions struct {
	Machine   *Machine
	Redirect  func(target string)
	LoginPath string // default DefaultLoginPath
	HomePath  string // default DefaultHomePath
	SetupPath string // default DefaultSetupPath
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	homePath := opts.HomePath
	if homePath == "" {
		homePath = DefaultHomePath
	}
	setupPath := opts.SetupPath
	if setupPath == "" {
		setupPath = DefaultSetupPath
	}
	redirect := opts.Redirect
	if redirect == nil {
		redirect = func(string) {}
	}
	return &Guard{
		machine:   opts.Machine,
		redirect:  redirect,
		loginPath: loginPath,
		homePath:  homePath,
		setupPath: setupPath,
	}
}

// RequireAuth allows the route when the visitor is authenticated. Anonymous
// visitors are redirected to the login path. Blocks until the machine is
// initialized so the decision never races the first session check.
func (g *Guard) RequireAuth(ctx context.Context) (bool, error) {
	state, err := g.resolvedState(ctx)
	if err != nil {
		return false, err
	}
	if state.Phase != PhaseAuthenticated {
		g.redirect(g.loginPath)
		return false, nil
	}
	return true, nil
}

// RequireAdmin allows the route for admins. Anonymous visitors go to login;
// authenticated non-admins go home.
func (g *Guard) RequireAdmin(ctx context.Context) (bool, error) {
	return g.requireFlag(ctx, func(s State) bool { return s.User.IsAdmin }, g.homePath)
}

// RequireVerifiedSeller allows the route for users with a verified store.
// Authenticated users without one are sent to store setup.
func (g *Guard) RequireVerifiedSeller(ctx context.Context) (bool, error) {
	return g.requireFlag(ctx, func(s State) bool { return s.User.StoreVerified }, g.setupPath)
}

func (g *Guard) requireFlag(ctx context.Context, allowed func(State) bool, deniedPath string) (bool, error) {
	state, err := g.resolvedState(ctx)
	if err != nil {
		return false, err
	}
	if state.Phase != PhaseAuthenticated {
		g.redirect(g.loginPath)
		return false, nil
	}
	if !allowed(state) {
		g.redirect(deniedPath)
		return false, nil
	}
	return true, nil
}

func (g *Guard) resolvedState(ctx context.Context) (State, error) {
	if err := g.machine.WaitReady(ctx); err != nil {
		return State{}, err
	}
	return g.machine.State(), nil
}
