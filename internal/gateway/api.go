// ABOUTME: JSON request/response types and encoding helpers for the HTTP API
// ABOUTME: All error responses use the {"error": "..."} shape

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/droneworks/droneport/internal/auth"
	"github.com/droneworks/droneport/internal/store"
)

// RegisterRequest is the JSON request body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// UserResponse is the public view of a user identity. The password hash
// never appears here.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LoginRequest is the JSON request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the JSON response for a successful login.
type LoginResponse struct {
	Email    string          `json:"email"`
	Username string          `json:"username"`
	Tokens   *auth.TokenPair `json:"tokens"`
}

// RefreshRequest is the JSON request body for logout and token refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse is the JSON response for POST /api/v1/auth/token/refresh.
type RefreshResponse struct {
	Access string `json:"access"`
}

// CategoryRequest is the JSON request body for category create/update.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse is the JSON response for a drone category.
type CategoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// DroneRequest is the JSON request body for drone create/update. Category
// is referenced by its unique name.
type DroneRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	HasCompeted       bool   `json:"has_it_competed"`
	ManufacturingDate string `json:"manufacturing_date"`
}

// DroneResponse is the JSON response for a drone. Owner is the owning
// user's username, read-only.
type DroneResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	HasCompeted       bool   `json:"has_it_competed"`
	Owner             string `json:"owner"`
	ManufacturingDate string `json:"manufacturing_date"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// PilotRequest is the JSON request body for pilot create/update.
type PilotRequest struct {
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	RacesCount int    `json:"races_count"`
}

// PilotResponse is the JSON response for a pilot. Competitions are
// included on detail fetches.
type PilotResponse struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Gender            string                 `json:"gender"`
	GenderDescription string                 `json:"gender_description"`
	RacesCount        int                    `json:"races_count"`
	Competitions      []*CompetitionResponse `json:"competitions,omitempty"`
}

// CompetitionRequest is the JSON request body for competition
// create/update. Pilot and drone are referenced by their unique names.
type CompetitionRequest struct {
	Pilot                   string `json:"pilot"`
	Drone                   string `json:"drone"`
	DistanceInFeet          int    `json:"distance_in_feet"`
	DistanceAchievementDate string `json:"distance_achievement_date"`
}

// CompetitionResponse is the JSON response for a competition record.
type CompetitionResponse struct {
	ID                      string `json:"id"`
	Pilot                   string `json:"pilot"`
	Drone                   string `json:"drone"`
	DistanceInFeet          int    `json:"distance_in_feet"`
	DistanceAchievementDate string `json:"distance_achievement_date"`
}

// maxBodySize caps JSON request bodies at 1 MiB.
const maxBodySize = 1 << 20

// decodeJSON parses a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes an {"error": msg} response with the given status code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, msg string) {
	g.writeJSON(w, status, map[string]string{"error": msg})
}

func userResponse(user *store.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func categoryResponse(category *store.DroneCategory) *CategoryResponse {
	return &CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt.Format(time.RFC3339),
		UpdatedAt: category.UpdatedAt.Format(time.RFC3339),
	}
}

func pilotResponse(pilot *store.Pilot, competitions []*CompetitionResponse) *PilotResponse {
	description := "Male"
	if pilot.Gender == store.GenderFemale {
		description = "Female"
	}
	return &PilotResponse{
		ID:                pilot.ID,
		Name:              pilot.Name,
		Gender:            pilot.Gender,
		GenderDescription: description,
		RacesCount:        pilot.RacesCount,
		Competitions:      competitions,
	}
}
