// ABOUTME: HTTP handlers for registration, login, logout, verification, and refresh
// ABOUTME: Translates users/auth/verify outcomes into status codes and messages

package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/droneworks/droneport/internal/auth"
	"github.com/droneworks/droneport/internal/store"
	"github.com/droneworks/droneport/internal/users"
	"github.com/droneworks/droneport/internal/verify"
)

// emailDispatchTimeout bounds the best-effort verification email send
// that runs after the registration response is committed.
const emailDispatchTimeout = 30 * time.Second

// isAlnum reports whether s is non-empty and contains only ASCII
// letters and digits.
func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// handleRegister handles POST /api/v1/auth/register.
// Creates the account and dispatches a verification email. Registration
// never logs the user in.
func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !isAlnum(req.Username) {
		g.sendJSONError(w, http.StatusBadRequest, "The username should only contain alphanumeric characters.")
		return
	}

	user, err := g.users.Create(r.Context(), users.CreateParams{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailRequired):
			g.sendJSONError(w, http.StatusBadRequest, "User must have an email address.")
		case errors.Is(err, users.ErrPasswordTooShort):
			g.sendJSONError(w, http.StatusBadRequest, "Password must be at least 5 characters.")
		case errors.Is(err, store.ErrDuplicateEmail):
			g.sendJSONError(w, http.StatusBadRequest, "A user with this email already exists.")
		case errors.Is(err, store.ErrDuplicateUsername):
			g.sendJSONError(w, http.StatusBadRequest, "A user with this username already exists.")
		default:
			g.logger.Error("registration failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		}
		return
	}

	// Best-effort dispatch; the created-account response never waits on
	// the mail relay.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
		defer cancel()
		g.verifier.SendVerificationEmail(ctx, user)
	}()

	g.writeJSON(w, http.StatusCreated, map[string]*UserResponse{"msg": userResponse(user)})
}

// handleLogin handles POST /api/v1/auth/login.
// The three failure checks run in order (credentials, active, verified)
// so the caller always gets the most specific reason.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := g.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			g.sendJSONError(w, http.StatusUnauthorized, "invalid credentials, try again.")
			return
		}
		g.logger.Error("login failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	if !user.IsActive {
		g.sendJSONError(w, http.StatusUnauthorized, "Account disabled, contact admin.")
		return
	}
	if !user.IsVerified {
		g.sendJSONError(w, http.StatusUnauthorized, "Account is not verified.")
		return
	}

	tokens, err := g.tokens.Issue(r.Context(), user.ID)
	if err != nil {
		g.logger.Error("token issuance failed", "user_id", user.ID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		return
	}

	g.logger.Info("user logged in", "user_id", user.ID)
	g.writeJSON(w, http.StatusOK, LoginResponse{
		Email:    user.Email,
		Username: user.Username,
		Tokens:   tokens,
	})
}

// handleLogout handles POST /api/v1/auth/logout.
// Requires an authenticated caller; revokes the presented refresh token.
func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := g.tokens.Revoke(r.Context(), req.Refresh); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Token is expired or invalid.")
		return
	}

	g.logger.Info("user logged out", "user_id", authCtx.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// handleVerifyEmail handles GET /api/v1/auth/verify-email?token=...
func (g *Gateway) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := g.verifier.Consume(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, verify.ErrLinkExpired):
			g.sendJSONError(w, http.StatusBadRequest, "Activation link expired")
		case errors.Is(err, verify.ErrInvalidToken):
			g.sendJSONError(w, http.StatusBadRequest, "Invalid token")
		default:
			g.logger.Error("email verification failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		}
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]string{"msg": "Successfully activated"})
}

// handleTokenRefresh handles POST /api/v1/auth/token/refresh.
func (g *Gateway) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	access, err := g.tokens.Refresh(r.Context(), req.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			g.sendJSONError(w, http.StatusUnauthorized, "Refresh token expired.")
		case errors.Is(err, auth.ErrTokenBlacklisted):
			g.sendJSONError(w, http.StatusUnauthorized, "Refresh token is blacklisted.")
		case errors.Is(err, auth.ErrTokenMalformed), errors.Is(err, auth.ErrMissingClaim):
			g.sendJSONError(w, http.StatusUnauthorized, "Refresh token is invalid.")
		default:
			g.logger.Error("token refresh failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "An error occurred. its on us!")
		}
		return
	}

	g.writeJSON(w, http.StatusOK, RefreshResponse{Access: access})
}
