package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepo_SetGetDelete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "profile:user-1", []byte(`{"id":"user-1"}`), time.Minute))

	got, err := repo.Get(ctx, "profile:user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"user-1"}`), got)

	deleted, err := repo.Delete(ctx, "profile:user-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = repo.Get(ctx, "profile:user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepo_GetMissingReturnsNil(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewCacheRepo(client)

	got, err := repo.Get(context.Background(), "profile:nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepo_EmptyKeyErrors(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewCacheRepo(client)
	ctx := context.Background()

	assert.Error(t, repo.Set(ctx, "", []byte("v"), time.Minute))
	_, err := repo.Get(ctx, "")
	assert.Error(t, err)
	_, err = repo.Delete(ctx, "")
	assert.Error(t, err)
}

func TestCacheRepo_TTLExpires(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "profile:ttl", []byte("v"), 100*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	got, err := repo.Get(ctx, "profile:ttl")
	require.NoError(t, err)
	assert.Nil(t, got)
}
