// Package mocks provides mock implementations for testing the storefront
// session and identity ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the ports interfaces. Hand-written in-memory doubles live in the auth
// subpackage for tests that want stateful fakes instead of expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for SessionStore, IdentityProvider, ProfileStore and
// CacheRepository interfaces from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ports_mock.go github.com/brightmarket/storefront/internal/ports SessionStore,IdentityProvider,ProfileStore,CacheRepository
