// ABOUTME: Tests for user store methods against a real temp SQLite database
// ABOUTME: Covers uniqueness constraints, lookups, and flag writes

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testUser(email, username string) *User {
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealha",
		IsActive:     true,
	}
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("a@x.com", "auser")
	user.FirstName = "Ada"
	user.Bio = "flies quads"
	require.NoError(t, store.CreateUser(ctx, user))

	retrieved, err := store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, "auser", retrieved.Username)
	assert.Equal(t, "Ada", retrieved.FirstName)
	assert.Equal(t, "flies quads", retrieved.Bio)
	assert.True(t, retrieved.IsActive)
	assert.False(t, retrieved.IsVerified)
	assert.False(t, retrieved.CreatedAt.IsZero())
	assert.False(t, retrieved.UpdatedAt.IsZero())
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("a@x.com", "auser")))

	err := store.CreateUser(ctx, testUser("a@x.com", "other"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_CreateUser_DuplicateUsername(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("a@x.com", "auser")))

	err := store.CreateUser(ctx, testUser("b@x.com", "auser"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.GetUserByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_MarkUserVerified(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("a@x.com", "auser")
	require.NoError(t, store.CreateUser(ctx, user))

	require.NoError(t, store.MarkUserVerified(ctx, user.ID))

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.IsVerified)

	// Idempotent
	require.NoError(t, store.MarkUserVerified(ctx, user.ID))
}

func TestStore_MarkUserVerified_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.MarkUserVerified(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_SetUserActive(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("a@x.com", "auser")
	require.NoError(t, store.CreateUser(ctx, user))

	require.NoError(t, store.SetUserActive(ctx, user.ID, false))

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.IsActive)
}
