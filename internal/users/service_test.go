// ABOUTME: Tests for user account creation and authentication
// ABOUTME: Uses a real temp SQLite store, no mocking

package users

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droneworks/droneport/internal/store"
)

func setupService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewService(s), s
}

func TestService_Create(t *testing.T) {
	svc, s := setupService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateParams{
		Email:    "a@x.com",
		Username: "auser",
		Password: "p@assw0rd",
		Bio:      "flies quads",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "p@assw0rd", user.PasswordHash)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
	assert.False(t, user.IsVerified)

	// Round-trip through the store
	retrieved, err := s.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.False(t, retrieved.IsVerified)
}

func TestService_Create_MissingEmail(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), CreateParams{Username: "auser", Password: "p@assw0rd"})
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestService_Create_ShortPassword(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), CreateParams{Email: "a@x.com", Username: "auser", Password: "abcd"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestService_Create_NormalizesEmailDomain(t *testing.T) {
	svc, _ := setupService(t)

	user, err := svc.Create(context.Background(), CreateParams{
		Email:    "Ada@EXAMPLE.com",
		Username: "ada",
		Password: "p@assw0rd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada@example.com", user.Email)
}

func TestService_Create_DuplicateEmailPassesThrough(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Email: "a@x.com", Username: "auser", Password: "p@assw0rd"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Email: "a@x.com", Username: "other", Password: "p@assw0rd"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestService_CreateSuperuser(t *testing.T) {
	svc, _ := setupService(t)

	user, err := svc.CreateSuperuser(context.Background(), CreateParams{
		Email:    "root@x.com",
		Username: "root",
		Password: "p@assw0rd",
	})
	require.NoError(t, err)

	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsActive)
}

func TestService_CreateSuperuser_RejectsDisabledFlags(t *testing.T) {
	svc, _ := setupService(t)
	disabled := false

	_, err := svc.CreateSuperuser(context.Background(), CreateParams{
		Email:    "root@x.com",
		Username: "root",
		Password: "p@assw0rd",
		IsStaff:  &disabled,
	})
	assert.ErrorIs(t, err, ErrSuperuserFlags)

	_, err = svc.CreateSuperuser(context.Background(), CreateParams{
		Email:       "root@x.com",
		Username:    "root",
		Password:    "p@assw0rd",
		IsSuperuser: &disabled,
	})
	assert.ErrorIs(t, err, ErrSuperuserFlags)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{Email: "a@x.com", Username: "auser", Password: "p@assw0rd"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "a@x.com", "p@assw0rd")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Email: "a@x.com", Username: "auser", Password: "p@assw0rd"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Authenticate_UnknownEmail(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Authenticate(context.Background(), "ghost@x.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
