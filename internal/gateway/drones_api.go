// ABOUTME: HTTP handlers for drone category and drone CRUD
// ABOUTME: Drone mutation is gated by the owner-or-read-only permission check

package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/droneworks/droneport/internal/auth"
	"github.com/droneworks/droneport/internal/store"
)

// handleListCategories handles GET /api/v1/categories.
func (g *Gateway) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := g.store.ListCategories(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		g.logger.Error("listing categories failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	response := make([]*CategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, categoryResponse(category))
	}
	g.writeJSON(w, http.StatusOK, response)
}

// handleCreateCategory handles POST /api/v1/categories.
func (g *Gateway) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	category := &store.DroneCategory{ID: uuid.NewString(), Name: req.Name}
	if err := g.store.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			g.sendJSONError(w, http.StatusBadRequest, "drone category with this name already exists.")
			return
		}
		g.logger.Error("creating category failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	g.writeJSON(w, http.StatusCreated, categoryResponse(category))
}

// handleGetCategory handles GET /api/v1/categories/{id}.
func (g *Gateway) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := g.store.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "listing category failed")
		return
	}
	g.writeJSON(w, http.StatusOK, categoryResponse(category))
}

// handleUpdateCategory handles PUT /api/v1/categories/{id}.
func (g *Gateway) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := g.store.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading category failed")
		return
	}

	category.Name = req.Name
	if err := g.store.UpdateCategory(r.Context(), category); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			g.sendJSONError(w, http.StatusBadRequest, "drone category with this name already exists.")
			return
		}
		g.respondNotFoundOrError(w, err, "updating category failed")
		return
	}

	g.writeJSON(w, http.StatusOK, categoryResponse(category))
}

// handleDeleteCategory handles DELETE /api/v1/categories/{id}.
func (g *Gateway) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		g.respondNotFoundOrError(w, err, "deleting category failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// droneResponseFor assembles the drone view with category and owner names.
func (g *Gateway) droneResponseFor(r *http.Request, drone *store.Drone) (*DroneResponse, error) {
	category, err := g.store.GetCategory(r.Context(), drone.CategoryID)
	if err != nil {
		return nil, err
	}

	owner, err := g.store.GetUser(r.Context(), drone.OwnerID)
	if err != nil {
		return nil, err
	}

	return &DroneResponse{
		ID:                drone.ID,
		Name:              drone.Name,
		Category:          category.Name,
		HasCompeted:       drone.HasCompeted,
		Owner:             owner.Username,
		ManufacturingDate: drone.ManufacturingDate.Format(time.RFC3339),
		CreatedAt:         drone.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         drone.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// handleListDrones handles GET /api/v1/drones.
func (g *Gateway) handleListDrones(w http.ResponseWriter, r *http.Request) {
	filter := store.DroneFilter{Name: r.URL.Query().Get("name")}
	if categoryName := r.URL.Query().Get("category"); categoryName != "" {
		category, err := g.store.GetCategoryByName(r.Context(), categoryName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				g.writeJSON(w, http.StatusOK, []*DroneResponse{})
				return
			}
			g.logger.Error("loading category filter failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
			return
		}
		filter.CategoryID = category.ID
	}

	drones, err := g.store.ListDrones(r.Context(), filter)
	if err != nil {
		g.logger.Error("listing drones failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	response := make([]*DroneResponse, 0, len(drones))
	for _, drone := range drones {
		view, err := g.droneResponseFor(r, drone)
		if err != nil {
			g.logger.Error("assembling drone response failed", "drone_id", drone.ID, "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
			return
		}
		response = append(response, view)
	}
	g.writeJSON(w, http.StatusOK, response)
}

// handleCreateDrone handles POST /api/v1/drones.
// Requires an authenticated caller; the caller becomes the owner.
func (g *Gateway) handleCreateDrone(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if authCtx == nil {
		g.sendJSONError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req DroneRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := g.store.GetCategoryByName(r.Context(), req.Category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusBadRequest, "unknown drone category")
			return
		}
		g.logger.Error("loading category failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	manufacturingDate, err := time.Parse(time.RFC3339, req.ManufacturingDate)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "manufacturing_date must be RFC 3339")
		return
	}

	drone := &store.Drone{
		ID:                uuid.NewString(),
		Name:              req.Name,
		CategoryID:        category.ID,
		HasCompeted:       req.HasCompeted,
		OwnerID:           authCtx.UserID,
		ManufacturingDate: manufacturingDate,
	}
	if err := g.store.CreateDrone(r.Context(), drone); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			g.sendJSONError(w, http.StatusBadRequest, "drone with this name already exists.")
			return
		}
		g.logger.Error("creating drone failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	view, err := g.droneResponseFor(r, drone)
	if err != nil {
		g.logger.Error("assembling drone response failed", "drone_id", drone.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}
	g.writeJSON(w, http.StatusCreated, view)
}

// handleGetDrone handles GET /api/v1/drones/{id}.
func (g *Gateway) handleGetDrone(w http.ResponseWriter, r *http.Request) {
	drone, err := g.store.GetDrone(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading drone failed")
		return
	}

	view, err := g.droneResponseFor(r, drone)
	if err != nil {
		g.logger.Error("assembling drone response failed", "drone_id", drone.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}
	g.writeJSON(w, http.StatusOK, view)
}

// checkDroneOwnership loads the drone and applies the ownership check.
// Returns nil after writing the response when the request is denied.
func (g *Gateway) checkDroneOwnership(w http.ResponseWriter, r *http.Request) *store.Drone {
	drone, err := g.store.GetDrone(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading drone failed")
		return nil
	}

	var requesterID string
	if authCtx := auth.FromContext(r.Context()); authCtx != nil {
		requesterID = authCtx.UserID
	}

	if !auth.OwnerOrReadOnly(r.Method, requesterID, drone.OwnerID) {
		g.sendJSONError(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return nil
	}

	return drone
}

// handleUpdateDrone handles PUT /api/v1/drones/{id}.
// Only the owner may mutate; ownership itself never changes.
func (g *Gateway) handleUpdateDrone(w http.ResponseWriter, r *http.Request) {
	drone := g.checkDroneOwnership(w, r)
	if drone == nil {
		return
	}

	var req DroneRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := g.store.GetCategoryByName(r.Context(), req.Category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusBadRequest, "unknown drone category")
			return
		}
		g.logger.Error("loading category failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	manufacturingDate, err := time.Parse(time.RFC3339, req.ManufacturingDate)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "manufacturing_date must be RFC 3339")
		return
	}

	drone.Name = req.Name
	drone.CategoryID = category.ID
	drone.HasCompeted = req.HasCompeted
	drone.ManufacturingDate = manufacturingDate

	if err := g.store.UpdateDrone(r.Context(), drone); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			g.sendJSONError(w, http.StatusBadRequest, "drone with this name already exists.")
			return
		}
		g.respondNotFoundOrError(w, err, "updating drone failed")
		return
	}

	view, err := g.droneResponseFor(r, drone)
	if err != nil {
		g.logger.Error("assembling drone response failed", "drone_id", drone.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}
	g.writeJSON(w, http.StatusOK, view)
}

// handleDeleteDrone handles DELETE /api/v1/drones/{id}.
func (g *Gateway) handleDeleteDrone(w http.ResponseWriter, r *http.Request) {
	drone := g.checkDroneOwnership(w, r)
	if drone == nil {
		return
	}

	if err := g.store.DeleteDrone(r.Context(), drone.ID); err != nil {
		g.respondNotFoundOrError(w, err, "deleting drone failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondNotFoundOrError maps store misses to 404 and everything else to 500.
func (g *Gateway) respondNotFoundOrError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrUserNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "Not found.")
		return
	}
	g.logger.Error(logMsg, "error", err)
	g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
}
