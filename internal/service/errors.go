package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/brightmarket/storefront/internal/ports"
)

const authErrorMaxLen = 300

// ErrUnauthenticated is returned by operations that need a live session when
// none is present.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrSessionExpired is returned when a session existed but could not be kept
// alive and has been cleared.
var ErrSessionExpired = errors.New("session expired")

// AuthError carries a user-facing message for a failed auth flow while
// preserving the underlying error for logging. Provider messages are passed
// through verbatim so the UI can show what the identity service said.
type AuthError struct {
	userMessage string
	err         error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	return e.userMessage
}

// Unwrap exposes the underlying error for errors.Is / errors.As checks.
func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// UserMessage returns the message safe to surface to the end user.
func (e *AuthError) UserMessage() string {
	if e == nil {
		return ""
	}
	return e.userMessage
}

// newAuthError wraps err with a user-facing message. Provider errors keep
// their own message; everything else gets the fallback.
func newAuthError(fallback string, err error) *AuthError {
	msg := fallback
	var provErr *ports.ProviderError
	if errors.As(err, &provErr) && strings.TrimSpace(provErr.Message) != "" {
		msg = sanitizeMessage(provErr.Message)
	}
	return &AuthError{userMessage: msg, err: err}
}

func sanitizeMessage(raw string) string {
	normalized := strings.Join(strings.Fields(strings.ReplaceAll(raw, "\n", " ")), " ")
	if utf8.RuneCountInString(normalized) > authErrorMaxLen {
		runes := []rune(normalized)
		normalized = string(runes[:authErrorMaxLen])
	}
	return normalized
}
