// ABOUTME: Gateway orchestrator that wires the HTTP server, store, and services
// ABOUTME: Owns route registration and the server lifecycle with graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/droneworks/droneport/internal/auth"
	"github.com/droneworks/droneport/internal/config"
	"github.com/droneworks/droneport/internal/mail"
	"github.com/droneworks/droneport/internal/store"
	"github.com/droneworks/droneport/internal/users"
	"github.com/droneworks/droneport/internal/verify"
)

// verificationTTL bounds how long an email verification link stays valid.
const verificationTTL = 24 * time.Hour

// tokenCleanupInterval controls how often expired refresh tokens are pruned.
const tokenCleanupInterval = time.Hour

// Gateway coordinates the droneport HTTP API.
type Gateway struct {
	config     *config.Config
	store      *store.SQLiteStore
	users      *users.Service
	tokens     *auth.Service
	verifier   *verify.Flow
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Gateway from configuration, opening the store and
// wiring the auth, user, and verification services.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	var sender mail.Sender
	if cfg.Email.Enabled {
		sender, err = mail.NewSMTPSender(cfg.Email)
		if err != nil {
			_ = sqlStore.Close()
			return nil, fmt.Errorf("initializing mail sender: %w", err)
		}
	} else {
		sender = mail.NewLogSender()
	}

	tokens := auth.NewService([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, sqlStore)

	gw := &Gateway{
		config:   cfg,
		store:    sqlStore,
		users:    users.NewService(sqlStore),
		tokens:   tokens,
		verifier: verify.NewFlow(tokens, sqlStore, sender, cfg.ExternalBaseURL(), verificationTTL),
		logger:   logger.With("component", "gateway"),
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// routes builds the HTTP route table.
func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()

	requireAuth := auth.Middleware(g.store, g.tokens)
	optionalAuth := auth.OptionalMiddleware(g.store, g.tokens)

	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /health/ready", g.handleReady)

	mux.HandleFunc("GET /api/v1", g.handleAPIRoot)
	mux.HandleFunc("GET /api/v1/{$}", g.handleAPIRoot)

	mux.HandleFunc("POST /api/v1/auth/register", g.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", g.handleLogin)
	mux.Handle("POST /api/v1/auth/logout", requireAuth(http.HandlerFunc(g.handleLogout)))
	mux.HandleFunc("GET /api/v1/auth/verify-email", g.handleVerifyEmail)
	mux.HandleFunc("POST /api/v1/auth/token/refresh", g.handleTokenRefresh)

	// Resource routes allow anonymous reads. Handlers that mutate
	// owned resources enforce ownership themselves.
	resource := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, optionalAuth(handler))
	}

	resource("GET /api/v1/categories", g.handleListCategories)
	resource("POST /api/v1/categories", g.handleCreateCategory)
	resource("GET /api/v1/categories/{id}", g.handleGetCategory)
	resource("PUT /api/v1/categories/{id}", g.handleUpdateCategory)
	resource("DELETE /api/v1/categories/{id}", g.handleDeleteCategory)

	resource("GET /api/v1/drones", g.handleListDrones)
	resource("POST /api/v1/drones", g.handleCreateDrone)
	resource("GET /api/v1/drones/{id}", g.handleGetDrone)
	resource("PUT /api/v1/drones/{id}", g.handleUpdateDrone)
	resource("DELETE /api/v1/drones/{id}", g.handleDeleteDrone)

	resource("GET /api/v1/pilots", g.handleListPilots)
	resource("POST /api/v1/pilots", g.handleCreatePilot)
	resource("GET /api/v1/pilots/{id}", g.handleGetPilot)
	resource("PUT /api/v1/pilots/{id}", g.handleUpdatePilot)
	resource("DELETE /api/v1/pilots/{id}", g.handleDeletePilot)

	resource("GET /api/v1/competitions", g.handleListCompetitions)
	resource("POST /api/v1/competitions", g.handleCreateCompetition)
	resource("GET /api/v1/competitions/{id}", g.handleGetCompetition)
	resource("PUT /api/v1/competitions/{id}", g.handleUpdateCompetition)
	resource("DELETE /api/v1/competitions/{id}", g.handleDeleteCompetition)

	mux.HandleFunc("/", g.handleNotFound)

	return mux
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		g.cleanupExpiredTokens(ctx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	<-cleanupDone

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// cleanupExpiredTokens periodically prunes expired refresh tokens.
func (g *Gateway) cleanupExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.store.DeleteExpiredRefreshTokens(ctx); err != nil {
				g.logger.Warn("pruning expired refresh tokens failed", "error", err)
			}
		}
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the database answers queries.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := g.store.CountUsers(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleAPIRoot lists the top-level collections.
func (g *Gateway) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	base := g.config.ExternalBaseURL() + "/api/v1"
	g.writeJSON(w, http.StatusOK, map[string]string{
		"categories":   base + "/categories",
		"drones":       base + "/drones",
		"pilots":       base + "/pilots",
		"competitions": base + "/competitions",
	})
}

// handleNotFound is the fallback for unmatched routes.
func (g *Gateway) handleNotFound(w http.ResponseWriter, r *http.Request) {
	g.sendJSONError(w, http.StatusNotFound, "The endpoint does not exists")
}
