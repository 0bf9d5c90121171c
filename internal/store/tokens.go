// ABOUTME: Outstanding refresh token records and blacklist store methods
// ABOUTME: A revoked jti fails all later refresh attempts with that token

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrTokenNotFound is returned when a refresh token jti is not on record.
var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshToken is the server-side record of an issued refresh token.
// Only the jti claim is stored, never the signed token itself.
type RefreshToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Revoked reports whether the token has been blacklisted.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// TokenStore defines the interface for refresh token persistence.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, jti string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, jti string) error
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

// Ensure SQLiteStore implements TokenStore.
var _ TokenStore = (*SQLiteStore)(nil)

// SaveRefreshToken records a newly issued refresh token as outstanding.
func (s *SQLiteStore) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO refresh_tokens (jti, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.JTI,
		token.UserID,
		token.ExpiresAt.UTC().Format(time.RFC3339),
		token.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token record by jti.
func (s *SQLiteStore) GetRefreshToken(ctx context.Context, jti string) (*RefreshToken, error) {
	query := `
		SELECT jti, user_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE jti = ?
	`

	var token RefreshToken
	var expiresAtStr, createdAtStr string
	var revokedAtStr sql.NullString

	err := s.db.QueryRowContext(ctx, query, jti).Scan(
		&token.JTI,
		&token.UserID,
		&expiresAtStr,
		&createdAtStr,
		&revokedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying refresh token: %w", err)
	}

	token.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	token.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if revokedAtStr.Valid {
		revokedAt, err := time.Parse(time.RFC3339, revokedAtStr.String)
		if err != nil {
			return nil, fmt.Errorf("parsing revoked_at: %w", err)
		}
		token.RevokedAt = &revokedAt
	}

	return &token, nil
}

// RevokeRefreshToken blacklists a refresh token by jti. Revoking an
// already revoked token is idempotent.
func (s *SQLiteStore) RevokeRefreshToken(ctx context.Context, jti string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = COALESCE(revoked_at, ?)
		WHERE jti = ?
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), jti)
	if err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}

	s.logger.Info("revoked refresh token", "jti", jti)
	return nil
}

// DeleteExpiredRefreshTokens purges records whose natural expiry has
// passed. Revocation state for live tokens is untouched.
func (s *SQLiteStore) DeleteExpiredRefreshTokens(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`

	_, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("deleting expired refresh tokens: %w", err)
	}

	return nil
}
