// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts JWT from Authorization header and adds the user to context

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/droneworks/droneport/internal/store"
)

// AccessVerifier validates an access token and returns the subject user ID.
type AccessVerifier interface {
	VerifyAccess(tokenString string) (string, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Middleware creates an HTTP middleware that validates access tokens,
// loads the user, and attaches an AuthContext to the request context.
// Tokens of any other purpose (refresh, verification) are rejected.
func Middleware(users store.UserStore, verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				http.Error(w, `{"error":"`+errMsg+`"}`, http.StatusUnauthorized)
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrTokenExpired) {
					msg = "token expired"
				}
				http.Error(w, `{"error":"`+msg+`"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				http.Error(w, `{"error":"user not found"}`, http.StatusUnauthorized)
				return
			}

			if !user.IsActive {
				http.Error(w, `{"error":"account disabled"}`, http.StatusForbidden)
				return
			}

			authCtx := &AuthContext{
				UserID:   user.ID,
				Email:    user.Email,
				Username: user.Username,
				IsStaff:  user.IsStaff,
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// OptionalMiddleware attaches an AuthContext when a valid bearer token is
// present but lets anonymous requests through. Resource endpoints with
// read-open semantics use this so the ownership check can still see the
// caller on mutating requests.
func OptionalMiddleware(users store.UserStore, verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				// A presented-but-bad token is rejected, not ignored
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil || !user.IsActive {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			authCtx := &AuthContext{
				UserID:   user.ID,
				Email:    user.Email,
				Username: user.Username,
				IsStaff:  user.IsStaff,
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}
