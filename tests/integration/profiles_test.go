package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/collectibles-store/internal/database"
	"github.com/safar/collectibles-store/internal/store"
)

func TestGetOrCreateProfileIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first, err := store.GetOrCreateProfile(ctx, db, "auth-sub-1", "Ana Santos", "ana@example.com")
	if err != nil {
		t.Fatalf("First get-or-create: %v", err)
	}

	// A second call with different details must return the stored row,
	// not overwrite it or create a duplicate.
	second, err := store.GetOrCreateProfile(ctx, db, "auth-sub-1", "Somebody Else", "other@example.com")
	if err != nil {
		t.Fatalf("Second get-or-create: %v", err)
	}

	if second.FullName != first.FullName || second.Email != first.Email {
		t.Errorf("Existing profile was modified: %+v vs %+v", first, second)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE id = $1`, "auth-sub-1").Scan(&count); err != nil {
		t.Fatalf("Count profiles: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 profile, got %d", count)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.GetProfile(context.Background(), db, "missing-subject")
	if !errors.Is(err, database.ErrProfileNotFound) {
		t.Errorf("Expected profile not found, got: %v", err)
	}
}
