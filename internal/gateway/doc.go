// Package gateway orchestrates the droneport HTTP server.
//
// # Overview
//
// The gateway package is the central coordinator of the droneport API.
// It owns the HTTP server, the SQLite store, and the account, token,
// and verification services, and translates their outcomes into JSON
// responses.
//
// # HTTP API
//
// Authentication endpoints:
//
//   - POST /api/v1/auth/register - Create an account and send a verification email
//   - GET  /api/v1/auth/verify-email - Consume an emailed verification token
//   - POST /api/v1/auth/login - Exchange credentials for an access/refresh pair
//   - POST /api/v1/auth/token/refresh - Mint a new access token
//   - POST /api/v1/auth/logout - Revoke a refresh token (requires auth)
//
// Resource endpoints, all under /api/v1:
//
//   - /categories - Drone categories
//   - /drones - Drones; creating requires auth, mutating requires ownership
//   - /pilots - Pilots; the detail view nests the pilot's competitions
//   - /competitions - Distance records, listed longest first
//
// Plus /health and /health/ready for liveness and readiness checks.
//
// # Permissions
//
// Reads are open to anonymous callers. Drone mutation is restricted to
// the drone's owner, which is fixed at creation time.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//
// Graceful shutdown:
//
//	cancel()
package gateway
