package data

// Package data provides Postgres-backed repositories for the storefront.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainauth "github.com/brightmarket/storefront/internal/domain/auth"
	"github.com/brightmarket/storefront/internal/data/pgxutil"
	"github.com/brightmarket/storefront/internal/ports"
)

// ErrProfileEmailExists is returned when an upsert collides with another
// user's email.
var ErrProfileEmailExists = errors.New("profile email already exists")

// ProfileRepo provides database operations for user profiles.
type ProfileRepo struct {
	DB *sql.DB
}

var _ ports.ProfileStore = (*ProfileRepo)(nil)

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db}
}

const profileColumns = `user_id, email, name, is_admin, store_verified, avatar_url`

// GetByUserID retrieves the projection for a user.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (domainauth.UserProjection, error) {
	out, err := pgxutil.QueryOne[domainauth.UserProjection](ctx, r.DB, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.UserProjection{}, ports.ErrProfileNotFound
		}
		return domainauth.UserProjection{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return out, nil
}

// Upsert creates or refreshes a profile row. Email and name track the
// identity provider; is_admin and store_verified are managed out of band and
// survive the upsert.
func (r *ProfileRepo) Upsert(ctx context.Context, profile domainauth.UserProjection) (domainauth.UserProjection, error) {
	if strings.TrimSpace(profile.ID) == "" {
		return domainauth.UserProjection{}, errors.New("profile user_id is required")
	}

	out, err := pgxutil.QueryOne[domainauth.UserProjection](ctx, r.DB, `
		INSERT INTO profiles (user_id, email, name, is_admin, store_verified, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			email      = EXCLUDED.email,
			name       = EXCLUDED.name,
			avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
			updated_at = now()
		RETURNING `+profileColumns,
		profile.ID,
		strings.TrimSpace(profile.Email),
		strings.TrimSpace(profile.Name),
		profile.IsAdmin,
		profile.StoreVerified,
		profile.AvatarURL,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domainauth.UserProjection{}, ErrProfileEmailExists
		}
		return domainauth.UserProjection{}, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return out, nil
}
