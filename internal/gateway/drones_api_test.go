// ABOUTME: Tests for category and drone endpoints
// ABOUTME: Covers anonymous reads, owner-only mutation, and name filters

package gateway

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCategory(t *testing.T, gw *Gateway, name string) *CategoryResponse {
	t.Helper()

	rec := doJSON(t, gw, http.MethodPost, "/api/v1/categories", "", CategoryRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code)

	var category CategoryResponse
	decodeBody(t, rec, &category)
	return &category
}

func createDrone(t *testing.T, gw *Gateway, token, name, category string) *DroneResponse {
	t.Helper()

	rec := doJSON(t, gw, http.MethodPost, "/api/v1/drones", token, DroneRequest{
		Name:              name,
		Category:          category,
		ManufacturingDate: time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var drone DroneResponse
	decodeBody(t, rec, &drone)
	return &drone
}

func TestCategoryCRUD(t *testing.T) {
	gw := newTestGateway(t)

	category := createCategory(t, gw, "Quadcopter")
	assert.Equal(t, "Quadcopter", category.Name)
	require.NotEmpty(t, category.ID)

	// Duplicate name is rejected.
	rec := doJSON(t, gw, http.MethodPost, "/api/v1/categories", "", CategoryRequest{Name: "Quadcopter"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "drone category with this name already exists.", errorMessage(t, rec))

	// Fetch by ID.
	rec = doJSON(t, gw, http.MethodGet, "/api/v1/categories/"+category.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Rename.
	rec = doJSON(t, gw, http.MethodPut, "/api/v1/categories/"+category.ID, "", CategoryRequest{Name: "Hexacopter"})
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed CategoryResponse
	decodeBody(t, rec, &renamed)
	assert.Equal(t, "Hexacopter", renamed.Name)

	// List with name filter.
	rec = doJSON(t, gw, http.MethodGet, "/api/v1/categories?name=Hexacopter", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []*CategoryResponse
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)

	// Delete, then 404.
	rec = doJSON(t, gw, http.MethodDelete, "/api/v1/categories/"+category.ID, "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, gw, http.MethodGet, "/api/v1/categories/"+category.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCategoryRejectsEmptyName(t *testing.T) {
	gw := newTestGateway(t)
	category := createCategory(t, gw, "Quadcopter")

	rec := doJSON(t, gw, http.MethodPut, "/api/v1/categories/"+category.ID, "", CategoryRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", errorMessage(t, rec))

	// The stored name is untouched.
	rec = doJSON(t, gw, http.MethodGet, "/api/v1/categories/"+category.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched CategoryResponse
	decodeBody(t, rec, &fetched)
	assert.Equal(t, "Quadcopter", fetched.Name)
}

func TestUpdateDroneRejectsEmptyName(t *testing.T) {
	gw := newTestGateway(t)
	createCategory(t, gw, "Racing")
	email := registerAndVerify(t, gw, "kara")
	access, _ := loginTokens(t, gw, email)
	drone := createDrone(t, gw, access, "Falcon", "Racing")

	rec := doJSON(t, gw, http.MethodPut, "/api/v1/drones/"+drone.ID, access, DroneRequest{
		Category:          "Racing",
		ManufacturingDate: time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", errorMessage(t, rec))

	rec = doJSON(t, gw, http.MethodGet, "/api/v1/drones/"+drone.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched DroneResponse
	decodeBody(t, rec, &fetched)
	assert.Equal(t, "Falcon", fetched.Name)
}

func TestCreateDroneRequiresAuth(t *testing.T) {
	gw := newTestGateway(t)
	createCategory(t, gw, "Racing")

	rec := doJSON(t, gw, http.MethodPost, "/api/v1/drones", "", DroneRequest{
		Name:              "Falcon",
		Category:          "Racing",
		ManufacturingDate: time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDroneCRUDWithOwnership(t *testing.T) {
	gw := newTestGateway(t)
	createCategory(t, gw, "Racing")

	ownerEmail := registerAndVerify(t, gw, "owner")
	ownerAccess, _ := loginTokens(t, gw, ownerEmail)
	otherEmail := registerAndVerify(t, gw, "other")
	otherAccess, _ := loginTokens(t, gw, otherEmail)

	drone := createDrone(t, gw, ownerAccess, "Falcon", "Racing")
	assert.Equal(t, "owner", drone.Owner)
	assert.Equal(t, "Racing", drone.Category)

	// Anyone may read.
	rec := doJSON(t, gw, http.MethodGet, "/api/v1/drones/"+drone.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	update := DroneRequest{
		Name:              "Falcon II",
		Category:          "Racing",
		HasCompeted:       true,
		ManufacturingDate: time.Now().UTC().Format(time.RFC3339),
	}

	// Anonymous mutation is forbidden.
	rec = doJSON(t, gw, http.MethodPut, "/api/v1/drones/"+drone.ID, "", update)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// A different authenticated user is forbidden too.
	rec = doJSON(t, gw, http.MethodPut, "/api/v1/drones/"+drone.ID, otherAccess, update)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action.", errorMessage(t, rec))

	// The owner may update. Ownership never moves.
	rec = doJSON(t, gw, http.MethodPut, "/api/v1/drones/"+drone.ID, ownerAccess, update)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated DroneResponse
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Falcon II", updated.Name)
	assert.True(t, updated.HasCompeted)
	assert.Equal(t, "owner", updated.Owner)

	// Delete follows the same rule.
	rec = doJSON(t, gw, http.MethodDelete, "/api/v1/drones/"+drone.ID, otherAccess, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, gw, http.MethodDelete, "/api/v1/drones/"+drone.ID, ownerAccess, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListDronesFilters(t *testing.T) {
	gw := newTestGateway(t)
	createCategory(t, gw, "Racing")
	createCategory(t, gw, "Freestyle")

	email := registerAndVerify(t, gw, "frank")
	access, _ := loginTokens(t, gw, email)

	createDrone(t, gw, access, "Falcon", "Racing")
	createDrone(t, gw, access, "Sparrow", "Freestyle")

	rec := doJSON(t, gw, http.MethodGet, "/api/v1/drones?category=Racing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var drones []*DroneResponse
	decodeBody(t, rec, &drones)
	require.Len(t, drones, 1)
	assert.Equal(t, "Falcon", drones[0].Name)

	rec = doJSON(t, gw, http.MethodGet, "/api/v1/drones?name=Sparrow", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &drones)
	require.Len(t, drones, 1)
	assert.Equal(t, "Sparrow", drones[0].Name)

	// Unknown category filter matches nothing.
	rec = doJSON(t, gw, http.MethodGet, "/api/v1/drones?category=Submarine", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &drones)
	assert.Empty(t, drones)
}

func TestCreateDroneUnknownCategory(t *testing.T) {
	gw := newTestGateway(t)
	email := registerAndVerify(t, gw, "grace")
	access, _ := loginTokens(t, gw, email)

	rec := doJSON(t, gw, http.MethodPost, "/api/v1/drones", access, DroneRequest{
		Name:              "Falcon",
		Category:          "Missing",
		ManufacturingDate: time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown drone category", errorMessage(t, rec))
}
