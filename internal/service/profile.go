package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

const profileCacheKeyPrefix = "profile:"

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Profiles ports.ProfileStore
	Cache    ports.CacheRepository // optional
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// ProfileService resolves user projections with a read-through cache in front
// of the profile store. A missing profile row falls back to a default
// projection so auth flows never fail on profile lookups.
type ProfileService struct {
	profiles ports.ProfileStore
	cache    ports.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ProfileService{
		profiles: opts.Profiles,
		cache:    opts.Cache,
		cacheTTL: ttl,
		logger:   logger,
	}
}

// Projection returns the user projection for userID, consulting the cache
// first. Store failures and missing rows degrade to the default projection.
func (s *ProfileService) Projection(ctx context.Context, userID string) domainauth.UserProjection {
	if userID == "" {
		return domainauth.DefaultProjection(userID)
	}

	if cached, ok := s.fromCache(ctx, userID); ok {
		return cached
	}

	projection, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ports.ErrProfileNotFound) {
			s.logger.WarnContext(ctx, "profile lookup failed; using default projection",
				"user_id", userID, "err", err)
		}
		return domainauth.DefaultProjection(userID)
	}

	s.toCache(ctx, userID, projection)
	return projection
}

// Invalidate drops the cached projection for userID.
func (s *ProfileService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if _, err := s.cache.Delete(ctx, profileCacheKeyPrefix+userID); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidate failed", "user_id", userID, "err", err)
	}
}

// Save upserts the profile row and refreshes the cache.
func (s *ProfileService) Save(ctx context.Context, profile domainauth.UserProjection) (domainauth.UserProjection, error) {
	saved, err := s.profiles.Upsert(ctx, profile)
	if err != nil {
		return domainauth.UserProjection{}, err
	}
	s.toCache(ctx, saved.ID, saved)
	return saved, nil
}

func (s *ProfileService) fromCache(ctx context.Context, userID string) (domainauth.UserProjection, bool) {
	if s.cache == nil {
		return domainauth.UserProjection{}, false
	}
	raw, err := s.cache.Get(ctx, profileCacheKeyPrefix+userID)
	if err != nil || raw == nil {
		return domainauth.UserProjection{}, false
	}
	var projection domainauth.UserProjection
	if err := json.Unmarshal(raw, &projection); err != nil {
		return domainauth.UserProjection{}, false
	}
	return projection, true
}

func (s *ProfileService) toCache(ctx context.Context, userID string, projection domainauth.UserProjection) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(projection)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, profileCacheKeyPrefix+userID, raw, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "profile cache write failed", "user_id", userID, "err", err)
	}
}
