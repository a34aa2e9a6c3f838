package httpx

import (
	"context"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
)

// statusKey is an unexported context key type to avoid collisions across
// packages. All handlers and middleware use the same key.
type statusKey struct{}

// SetStatusInContext returns a child context carrying the resolved auth
// status for the request.
func SetStatusInContext(ctx context.Context, status domainauth.Status) context.Context {
	return context.WithValue(ctx, statusKey{}, status)
}

// StatusFromContext returns the auth status from the context and whether one
// was set.
func StatusFromContext(ctx context.Context) (domainauth.Status, bool) {
	status, ok := ctx.Value(statusKey{}).(domainauth.Status)
	return status, ok
}

// UserFromContext returns the authenticated user's projection, if any.
func UserFromContext(ctx context.Context) (*domainauth.UserProjection, bool) {
	status, ok := StatusFromContext(ctx)
	if !ok || !status.Authenticated || status.User == nil {
		return nil, false
	}
	return status.User, true
}
