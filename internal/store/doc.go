// Package store provides persistent storage for droneport using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with multiple
// specialized interfaces:
//
//   - UserStore: User identities (email/username/password hash, flags)
//   - TokenStore: Outstanding refresh tokens and blacklist state
//   - DroneStore: Drone categories and drones
//   - PilotStore: Pilots and competition records
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries.
//
// # Invariants
//
// Uniqueness of user email, username, and of drone/category/pilot names is
// enforced by UNIQUE indexes; the later of two concurrent writers gets a
// typed duplicate error (ErrDuplicateEmail, ErrDuplicateUsername,
// ErrDuplicateName) rather than overwriting.
//
// Drone creates, updates, and deletes are logged by the store itself, so
// no caller has to remember to emit the audit line.
//
// # Error Handling
//
// Lookup misses return ErrUserNotFound, ErrTokenNotFound, or ErrNotFound.
// Callers match with errors.Is and translate to HTTP status codes at the
// gateway boundary.
package store
