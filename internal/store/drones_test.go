// ABOUTME: Tests for drone and category store methods
// ABOUTME: Covers unique names, filtered listing, and immutable ownership

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDroneFixtures(t *testing.T, store *SQLiteStore) (*User, *DroneCategory) {
	t.Helper()
	ctx := context.Background()

	user := testUser("owner@x.com", "owner")
	require.NoError(t, store.CreateUser(ctx, user))

	category := &DroneCategory{ID: uuid.NewString(), Name: "Quadcopter"}
	require.NoError(t, store.CreateCategory(ctx, category))

	return user, category
}

func testDrone(name string, category *DroneCategory, owner *User) *Drone {
	return &Drone{
		ID:                uuid.NewString(),
		Name:              name,
		CategoryID:        category.ID,
		OwnerID:           owner.ID,
		ManufacturingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_CreateCategory_DuplicateName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCategory(ctx, &DroneCategory{ID: uuid.NewString(), Name: "Quadcopter"}))

	err := store.CreateCategory(ctx, &DroneCategory{ID: uuid.NewString(), Name: "Quadcopter"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestStore_ListCategories_Ordering(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Octocopter", "Fixed Wing", "Quadcopter"} {
		require.NoError(t, store.CreateCategory(ctx, &DroneCategory{ID: uuid.NewString(), Name: name}))
	}

	categories, err := store.ListCategories(ctx, "")
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Fixed Wing", categories[0].Name)
	assert.Equal(t, "Octocopter", categories[1].Name)
	assert.Equal(t, "Quadcopter", categories[2].Name)

	filtered, err := store.ListCategories(ctx, "Quadcopter")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Quadcopter", filtered[0].Name)
}

func TestStore_CreateDrone(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user, category := setupDroneFixtures(t, store)

	drone := testDrone("Whirlwind", category, user)
	require.NoError(t, store.CreateDrone(ctx, drone))

	retrieved, err := store.GetDrone(ctx, drone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Whirlwind", retrieved.Name)
	assert.Equal(t, category.ID, retrieved.CategoryID)
	assert.Equal(t, user.ID, retrieved.OwnerID)
	assert.False(t, retrieved.HasCompeted)
	assert.Equal(t, drone.ManufacturingDate, retrieved.ManufacturingDate)
}

func TestStore_CreateDrone_DuplicateName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user, category := setupDroneFixtures(t, store)

	require.NoError(t, store.CreateDrone(ctx, testDrone("Whirlwind", category, user)))

	err := store.CreateDrone(ctx, testDrone("Whirlwind", category, user))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestStore_ListDrones_Filter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user, category := setupDroneFixtures(t, store)

	other := &DroneCategory{ID: uuid.NewString(), Name: "Octocopter"}
	require.NoError(t, store.CreateCategory(ctx, other))

	require.NoError(t, store.CreateDrone(ctx, testDrone("Zephyr", category, user)))
	require.NoError(t, store.CreateDrone(ctx, testDrone("Apex", other, user)))

	all, err := store.ListDrones(ctx, DroneFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Apex", all[0].Name) // name ascending

	byCategory, err := store.ListDrones(ctx, DroneFilter{CategoryID: category.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Zephyr", byCategory[0].Name)

	byName, err := store.ListDrones(ctx, DroneFilter{Name: "Apex"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
}

func TestStore_UpdateDrone_OwnershipImmutable(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user, category := setupDroneFixtures(t, store)

	intruder := testUser("intruder@x.com", "intruder")
	require.NoError(t, store.CreateUser(ctx, intruder))

	drone := testDrone("Whirlwind", category, user)
	require.NoError(t, store.CreateDrone(ctx, drone))

	drone.Name = "Whirlwind II"
	drone.HasCompeted = true
	drone.OwnerID = intruder.ID // must not take effect
	require.NoError(t, store.UpdateDrone(ctx, drone))

	retrieved, err := store.GetDrone(ctx, drone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Whirlwind II", retrieved.Name)
	assert.True(t, retrieved.HasCompeted)
	assert.Equal(t, user.ID, retrieved.OwnerID)
}

func TestStore_DeleteDrone(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user, category := setupDroneFixtures(t, store)

	drone := testDrone("Whirlwind", category, user)
	require.NoError(t, store.CreateDrone(ctx, drone))

	require.NoError(t, store.DeleteDrone(ctx, drone.ID))

	_, err := store.GetDrone(ctx, drone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteDrone(ctx, drone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteCategory_CascadesToDrones(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user, category := setupDroneFixtures(t, store)

	drone := testDrone("Whirlwind", category, user)
	require.NoError(t, store.CreateDrone(ctx, drone))

	require.NoError(t, store.DeleteCategory(ctx, category.ID))

	_, err := store.GetDrone(ctx, drone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
