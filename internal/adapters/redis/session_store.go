package redis

// Package redis provides Redis-based adapters for the storefront system.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

// DefaultSessionTTL is the store entry lifetime used when no TTL is
// configured. It caps session lifetime regardless of token refreshes.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionStore is a Redis-based session store for production use. Entries
// live under a fixed TTL that Update resets to the full window (sliding
// expiry); the access-token expiry inside the record is tracked separately.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// SessionStoreOptions configures NewSessionStore.
type SessionStoreOptions struct {
	Prefix string        // default "session:"
	TTL    time.Duration // default DefaultSessionTTL
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	if opts.Prefix == "" {
		opts.Prefix = "session:"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	return &SessionStore{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
	}
}

func (s *SessionStore) Create(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, s.prefix+sess.ID, data, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	return sess, nil
}

// Update merges a fresh token pair into the existing record and resets the
// TTL to the full window. Read-modify-write without locking; concurrent
// refreshes for the same session are last-writer-wins, acceptable because
// refresh is idempotent at the provider and the window is short.
func (s *SessionStore) Update(ctx context.Context, id string, tokens domainauth.TokenPair) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	sess.ApplyTokens(tokens)

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, s.prefix+id, data, s.ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	return s.client.Del(ctx, s.prefix+id).Err()
}

var _ ports.SessionStore = (*SessionStore)(nil)
