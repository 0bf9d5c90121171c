// Package auth provides authentication and authorization for droneport.
//
// # Tokens
//
// All tokens are HS256-signed JWTs carrying a "typ" purpose claim:
//
//   - access: short-lived, proves identity on each API request.
//   - refresh: longer-lived, exchangeable for new access tokens. Its jti
//     is recorded server-side so an individual session can be revoked
//     (blacklisted) without touching any other session.
//   - verify: embedded in email verification links.
//
// The explicit purpose claim means a verification or refresh token can
// never be replayed as an access token.
//
// # Validation order
//
// Token validation checks signature, then expiry, then (for refresh
// tokens) blacklist status, short-circuiting on the first failure.
// Callers distinguish the outcomes with errors.Is against
// ErrTokenMalformed, ErrTokenExpired, and ErrTokenBlacklisted.
//
// # Request authentication
//
// Middleware validates the Authorization bearer token, loads the user,
// and attaches an AuthContext retrievable with FromContext. Handlers for
// owned resources combine it with OwnerOrReadOnly to gate mutation.
package auth
