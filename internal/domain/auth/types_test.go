package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_NeedsRefresh_Boundary(t *testing.T) {
	const threshold = 5 * time.Minute
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{
			name:      "remaining just above threshold",
			expiresAt: now.Add(threshold).UnixMilli() + 1,
			want:      false,
		},
		{
			name:      "remaining exactly threshold",
			expiresAt: now.Add(threshold).UnixMilli(),
			want:      true,
		},
		{
			name:      "remaining below threshold",
			expiresAt: now.Add(time.Minute).UnixMilli(),
			want:      true,
		},
		{
			name:      "already expired",
			expiresAt: now.Add(-time.Second).UnixMilli(),
			want:      true,
		},
		{
			name:      "far from expiry",
			expiresAt: now.Add(time.Hour).UnixMilli(),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.NeedsRefresh(now, threshold))
		})
	}
}

func TestSession_ApplyTokens(t *testing.T) {
	s := Session{
		ID:           "sess-1",
		UserID:       "user-1",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    1000,
	}

	s.ApplyTokens(TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    2000,
	})

	assert.Equal(t, "new-access", s.AccessToken)
	assert.Equal(t, "new-refresh", s.RefreshToken)
	assert.Equal(t, int64(2000), s.ExpiresAt)
	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, "user-1", s.UserID)
}

func TestDefaultProjection(t *testing.T) {
	p := DefaultProjection("user-42")

	assert.Equal(t, "user-42", p.ID)
	assert.False(t, p.IsAdmin)
	assert.False(t, p.StoreVerified)
	assert.Nil(t, p.AvatarURL)
}

func TestAnonymous(t *testing.T) {
	st := Anonymous()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
}
