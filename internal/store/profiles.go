package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/collectibles-store/internal/database"
	"github.com/safar/collectibles-store/internal/models"
)

// GetOrCreateProfile inserts a profile for the auth provider's subject
// on first sight and returns the existing row on every later call. The
// no-op conflict update makes RETURNING yield the stored row either way.
func GetOrCreateProfile(ctx context.Context, db *sql.DB, id, fullName, email string) (*models.Profile, error) {
	profile := &models.Profile{}

	query := `
		INSERT INTO profiles (id, full_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET updated_at = profiles.updated_at
		RETURNING id, full_name, email, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, id, fullName, email).Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Email,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}

	return profile, nil
}

func GetProfile(ctx context.Context, db *sql.DB, id string) (*models.Profile, error) {
	profile := &models.Profile{}

	query := `
		SELECT id, full_name, email, created_at, updated_at
		FROM profiles
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Email,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}
