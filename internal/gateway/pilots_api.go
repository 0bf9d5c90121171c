// ABOUTME: HTTP handlers for pilot and competition CRUD
// ABOUTME: Pilot detail responses nest the pilot's competitions, leaderboard order

package gateway

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/droneworks/droneport/internal/store"
)

// competitionResponseFor assembles the competition view with pilot and
// drone names resolved.
func (g *Gateway) competitionResponseFor(r *http.Request, competition *store.Competition) (*CompetitionResponse, error) {
	pilot, err := g.store.GetPilot(r.Context(), competition.PilotID)
	if err != nil {
		return nil, err
	}

	drone, err := g.store.GetDrone(r.Context(), competition.DroneID)
	if err != nil {
		return nil, err
	}

	return &CompetitionResponse{
		ID:                      competition.ID,
		Pilot:                   pilot.Name,
		Drone:                   drone.Name,
		DistanceInFeet:          competition.DistanceInFeet,
		DistanceAchievementDate: competition.DistanceAchievementDate.Format(time.RFC3339),
	}, nil
}

// handleListPilots handles GET /api/v1/pilots.
func (g *Gateway) handleListPilots(w http.ResponseWriter, r *http.Request) {
	pilots, err := g.store.ListPilots(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		g.logger.Error("listing pilots failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	response := make([]*PilotResponse, 0, len(pilots))
	for _, pilot := range pilots {
		response = append(response, pilotResponse(pilot, nil))
	}
	g.writeJSON(w, http.StatusOK, response)
}

// handleCreatePilot handles POST /api/v1/pilots.
func (g *Gateway) handleCreatePilot(w http.ResponseWriter, r *http.Request) {
	var req PilotRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Gender != "" && req.Gender != store.GenderMale && req.Gender != store.GenderFemale {
		g.sendJSONError(w, http.StatusBadRequest, "gender must be M or F")
		return
	}

	pilot := &store.Pilot{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Gender:     req.Gender,
		RacesCount: req.RacesCount,
	}
	if err := g.store.CreatePilot(r.Context(), pilot); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			g.sendJSONError(w, http.StatusBadRequest, "pilot with this name already exists.")
			return
		}
		g.logger.Error("creating pilot failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	g.writeJSON(w, http.StatusCreated, pilotResponse(pilot, nil))
}

// handleGetPilot handles GET /api/v1/pilots/{id}.
// The detail view embeds the pilot's competitions.
func (g *Gateway) handleGetPilot(w http.ResponseWriter, r *http.Request) {
	pilot, err := g.store.GetPilot(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading pilot failed")
		return
	}

	competitions, err := g.store.ListCompetitions(r.Context(), store.CompetitionFilter{PilotID: pilot.ID})
	if err != nil {
		g.logger.Error("listing pilot competitions failed", "pilot_id", pilot.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	views := make([]*CompetitionResponse, 0, len(competitions))
	for _, competition := range competitions {
		view, err := g.competitionResponseFor(r, competition)
		if err != nil {
			g.logger.Error("assembling competition response failed", "competition_id", competition.ID, "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
			return
		}
		views = append(views, view)
	}

	g.writeJSON(w, http.StatusOK, pilotResponse(pilot, views))
}

// handleUpdatePilot handles PUT /api/v1/pilots/{id}.
func (g *Gateway) handleUpdatePilot(w http.ResponseWriter, r *http.Request) {
	var req PilotRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Gender != "" && req.Gender != store.GenderMale && req.Gender != store.GenderFemale {
		g.sendJSONError(w, http.StatusBadRequest, "gender must be M or F")
		return
	}

	pilot, err := g.store.GetPilot(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading pilot failed")
		return
	}

	pilot.Name = req.Name
	if req.Gender != "" {
		pilot.Gender = req.Gender
	}
	pilot.RacesCount = req.RacesCount

	if err := g.store.UpdatePilot(r.Context(), pilot); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			g.sendJSONError(w, http.StatusBadRequest, "pilot with this name already exists.")
			return
		}
		g.respondNotFoundOrError(w, err, "updating pilot failed")
		return
	}

	g.writeJSON(w, http.StatusOK, pilotResponse(pilot, nil))
}

// handleDeletePilot handles DELETE /api/v1/pilots/{id}.
func (g *Gateway) handleDeletePilot(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeletePilot(r.Context(), r.PathValue("id")); err != nil {
		g.respondNotFoundOrError(w, err, "deleting pilot failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// competitionFilterFromQuery reads the supported competition list
// filters. When ok is false the response was already written: an
// unknown pilot or drone name short-circuits to an empty list, and
// invalid numeric values report an error to the client.
func (g *Gateway) competitionFilterFromQuery(w http.ResponseWriter, r *http.Request) (store.CompetitionFilter, bool) {
	var filter store.CompetitionFilter

	if pilotName := r.URL.Query().Get("pilot"); pilotName != "" {
		pilot, err := g.store.GetPilotByName(r.Context(), pilotName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				g.writeJSON(w, http.StatusOK, []*CompetitionResponse{})
				return filter, false
			}
			g.logger.Error("loading pilot filter failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
			return filter, false
		}
		filter.PilotID = pilot.ID
	}

	if droneName := r.URL.Query().Get("drone"); droneName != "" {
		drone, err := g.store.GetDroneByName(r.Context(), droneName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				g.writeJSON(w, http.StatusOK, []*CompetitionResponse{})
				return filter, false
			}
			g.logger.Error("loading drone filter failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
			return filter, false
		}
		filter.DroneID = drone.ID
	}

	for _, q := range []struct {
		key  string
		dest *int
	}{
		{"min_distance", &filter.MinDistance},
		{"max_distance", &filter.MaxDistance},
	} {
		raw := r.URL.Query().Get(q.key)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			g.sendJSONError(w, http.StatusBadRequest, q.key+" must be an integer")
			return filter, false
		}
		*q.dest = value
	}

	return filter, true
}

// handleListCompetitions handles GET /api/v1/competitions.
// Results come back in leaderboard order, longest distance first.
func (g *Gateway) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	filter, ok := g.competitionFilterFromQuery(w, r)
	if !ok {
		return
	}

	competitions, err := g.store.ListCompetitions(r.Context(), filter)
	if err != nil {
		g.logger.Error("listing competitions failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	response := make([]*CompetitionResponse, 0, len(competitions))
	for _, competition := range competitions {
		view, err := g.competitionResponseFor(r, competition)
		if err != nil {
			g.logger.Error("assembling competition response failed", "competition_id", competition.ID, "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
			return
		}
		response = append(response, view)
	}
	g.writeJSON(w, http.StatusOK, response)
}

// resolveCompetitionRefs looks up the pilot and drone named in the
// request body. A false return means the response was already written.
func (g *Gateway) resolveCompetitionRefs(w http.ResponseWriter, r *http.Request, req *CompetitionRequest) (*store.Pilot, *store.Drone, bool) {
	pilot, err := g.store.GetPilotByName(r.Context(), req.Pilot)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusBadRequest, "unknown pilot")
			return nil, nil, false
		}
		g.logger.Error("loading pilot failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return nil, nil, false
	}

	drone, err := g.store.GetDroneByName(r.Context(), req.Drone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusBadRequest, "unknown drone")
			return nil, nil, false
		}
		g.logger.Error("loading drone failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return nil, nil, false
	}

	return pilot, drone, true
}

// handleCreateCompetition handles POST /api/v1/competitions.
func (g *Gateway) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req CompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	pilot, drone, ok := g.resolveCompetitionRefs(w, r, &req)
	if !ok {
		return
	}

	achievementDate, err := time.Parse(time.RFC3339, req.DistanceAchievementDate)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "distance_achievement_date must be RFC 3339")
		return
	}

	competition := &store.Competition{
		ID:                      uuid.NewString(),
		PilotID:                 pilot.ID,
		DroneID:                 drone.ID,
		DistanceInFeet:          req.DistanceInFeet,
		DistanceAchievementDate: achievementDate,
	}
	if err := g.store.CreateCompetition(r.Context(), competition); err != nil {
		g.logger.Error("creating competition failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	view, err := g.competitionResponseFor(r, competition)
	if err != nil {
		g.logger.Error("assembling competition response failed", "competition_id", competition.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}
	g.writeJSON(w, http.StatusCreated, view)
}

// handleGetCompetition handles GET /api/v1/competitions/{id}.
func (g *Gateway) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := g.store.GetCompetition(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading competition failed")
		return
	}

	view, err := g.competitionResponseFor(r, competition)
	if err != nil {
		g.logger.Error("assembling competition response failed", "competition_id", competition.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}
	g.writeJSON(w, http.StatusOK, view)
}

// handleUpdateCompetition handles PUT /api/v1/competitions/{id}.
func (g *Gateway) handleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	var req CompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	competition, err := g.store.GetCompetition(r.Context(), r.PathValue("id"))
	if err != nil {
		g.respondNotFoundOrError(w, err, "loading competition failed")
		return
	}

	pilot, drone, ok := g.resolveCompetitionRefs(w, r, &req)
	if !ok {
		return
	}

	achievementDate, err := time.Parse(time.RFC3339, req.DistanceAchievementDate)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "distance_achievement_date must be RFC 3339")
		return
	}

	competition.PilotID = pilot.ID
	competition.DroneID = drone.ID
	competition.DistanceInFeet = req.DistanceInFeet
	competition.DistanceAchievementDate = achievementDate

	if err := g.store.UpdateCompetition(r.Context(), competition); err != nil {
		g.respondNotFoundOrError(w, err, "updating competition failed")
		return
	}

	view, err := g.competitionResponseFor(r, competition)
	if err != nil {
		g.logger.Error("assembling competition response failed", "competition_id", competition.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}
	g.writeJSON(w, http.StatusOK, view)
}

// handleDeleteCompetition handles DELETE /api/v1/competitions/{id}.
func (g *Gateway) handleDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteCompetition(r.Context(), r.PathValue("id")); err != nil {
		g.respondNotFoundOrError(w, err, "deleting competition failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
