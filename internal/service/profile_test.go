package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/mocks"
	mockauth "github.com/brightmarket/storefront/internal/mocks/auth"
	"github.com/brightmarket/storefront/internal/ports"
)

func TestProjection_ReadThroughCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockProfileStore(ctrl)
	svc := NewProfileService(ProfileServiceOptions{
		Profiles: store,
		Cache:    mockauth.NewMemoryCache(),
		CacheTTL: time.Minute,
	})

	projection := domainauth.UserProjection{ID: "user-1", Email: "a@b.com", Name: "Ada", IsAdmin: true}
	store.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(projection, nil).Times(1)

	first := svc.Projection(context.Background(), "user-1")
	assert.Equal(t, projection, first)

	// Second lookup is served from cache; the store expectation allows one call.
	second := svc.Projection(context.Background(), "user-1")
	assert.Equal(t, projection, second)
}

func TestProjection_MissingProfileFallsBackToDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockProfileStore(ctrl)
	svc := NewProfileService(ProfileServiceOptions{Profiles: store})

	store.EXPECT().GetByUserID(gomock.Any(), "user-2").Return(domainauth.UserProjection{}, ports.ErrProfileNotFound)

	got := svc.Projection(context.Background(), "user-2")
	assert.Equal(t, domainauth.DefaultProjection("user-2"), got)
	assert.False(t, got.IsAdmin)
}

func TestProjection_StoreErrorDegrades(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	store.GetErr = errors.New("db down")
	svc := NewProfileService(ProfileServiceOptions{Profiles: store})

	got := svc.Projection(context.Background(), "user-3")
	assert.Equal(t, domainauth.DefaultProjection("user-3"), got)
}

func TestProjection_EmptyUserID(t *testing.T) {
	svc := NewProfileService(ProfileServiceOptions{Profiles: mockauth.NewMemoryProfileStore()})
	got := svc.Projection(context.Background(), "")
	assert.False(t, got.IsAdmin)
	assert.Empty(t, got.ID)
}

func TestSave_RefreshesCache(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	cache := mockauth.NewMemoryCache()
	svc := NewProfileService(ProfileServiceOptions{Profiles: store, Cache: cache, CacheTTL: time.Minute})

	saved, err := svc.Save(context.Background(), domainauth.UserProjection{ID: "user-1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", saved.ID)

	// Cache now answers without the store.
	store.GetErr = errors.New("db down")
	got := svc.Projection(context.Background(), "user-1")
	assert.Equal(t, saved, got)
}

func TestInvalidate_DropsCacheEntry(t *testing.T) {
	store := mockauth.NewMemoryProfileStore()
	store.Put(domainauth.UserProjection{ID: "user-1", Email: "a@b.com", StoreVerified: true})
	cache := mockauth.NewMemoryCache()
	svc := NewProfileService(ProfileServiceOptions{Profiles: store, Cache: cache, CacheTTL: time.Minute})

	_ = svc.Projection(context.Background(), "user-1")
	svc.Invalidate(context.Background(), "user-1")

	store.Put(domainauth.UserProjection{ID: "user-1", Email: "a@b.com", StoreVerified: false})
	got := svc.Projection(context.Background(), "user-1")
	assert.False(t, got.StoreVerified)
}
