// ABOUTME: Tests for the HTTP authentication middleware
// ABOUTME: Covers bearer extraction, token purposes, and disabled accounts

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func authedHandler(t *testing.T, gotAuth **AuthContext) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotAuth = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ValidToken(t *testing.T) {
	svc, s := newTestService(t)
	user := createTokenTestUser(t, s)

	pair, err := svc.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotAuth *AuthContext
	handler := Middleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotAuth == nil {
		t.Fatal("AuthContext not attached")
	}
	if gotAuth.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", gotAuth.UserID, user.ID)
	}
	if gotAuth.Username != user.Username {
		t.Errorf("Username = %q, want %q", gotAuth.Username, user.Username)
	}
}

func TestMiddleware_MissingOrBadHeader(t *testing.T) {
	svc, s := newTestService(t)

	var gotAuth *AuthContext
	handler := Middleware(s, svc)(authedHandler(t, &gotAuth))

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc123"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/drones/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestMiddleware_RefreshTokenRejected(t *testing.T) {
	svc, s := newTestService(t)
	user := createTokenTestUser(t, s)

	pair, err := svc.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotAuth *AuthContext
	handler := Middleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddleware_DisabledAccount(t *testing.T) {
	svc, s := newTestService(t)
	user := createTokenTestUser(t, s)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := s.SetUserActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetUserActive() error = %v", err)
	}

	var gotAuth *AuthContext
	handler := Middleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	svc, s := newTestService(t)
	user := createTokenTestUser(t, s)

	shortLived := NewService(tokenTestSecret, -time.Minute, time.Hour, s)
	pair, err := shortLived.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotAuth *AuthContext
	handler := Middleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestOptionalMiddleware_AnonymousPassesThrough(t *testing.T) {
	svc, s := newTestService(t)

	var gotAuth *AuthContext
	handler := OptionalMiddleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotAuth != nil {
		t.Error("anonymous request should have no AuthContext")
	}
}

func TestOptionalMiddleware_BadTokenRejected(t *testing.T) {
	svc, s := newTestService(t)

	var gotAuth *AuthContext
	handler := OptionalMiddleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drones/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestOptionalMiddleware_ValidToken(t *testing.T) {
	svc, s := newTestService(t)
	user := createTokenTestUser(t, s)

	pair, err := svc.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotAuth *AuthContext
	handler := OptionalMiddleware(s, svc)(authedHandler(t, &gotAuth))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drones/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotAuth == nil || gotAuth.UserID != user.ID {
		t.Errorf("AuthContext = %+v, want user %q", gotAuth, user.ID)
	}
}
