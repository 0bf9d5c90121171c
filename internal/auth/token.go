// ABOUTME: JWT access/refresh token issuance, validation, and revocation
// ABOUTME: Uses HS256 signing; refresh jtis are recorded server-side for blacklisting

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/droneworks/droneport/internal/store"
)

// Token errors
var (
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenBlacklisted = errors.New("token blacklisted")
	ErrMissingClaim     = errors.New("missing required claim")
)

// Token purpose values carried in the "typ" claim. Every token states
// what it is for, so an access token can never pass as a refresh token
// or a verification link and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeVerify  = "verify"
)

// TokenPair is an access/refresh token pair bound to one user.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Service issues and validates signed tokens. Refresh tokens are
// additionally tracked in the token store so they can be revoked before
// their natural expiry.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	tokens     store.TokenStore
}

// NewService creates a token service with the given signing secret and
// lifetimes.
func NewService(secret []byte, accessTTL, refreshTTL time.Duration, tokens store.TokenStore) *Service {
	return &Service{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		tokens:     tokens,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue mints an access/refresh pair for the given user and records the
// refresh jti as outstanding.
func (s *Service) Issue(ctx context.Context, userID string) (*TokenPair, error) {
	now := time.Now()

	access, err := s.sign(jwt.MapClaims{
		"sub": userID,
		"typ": TokenTypeAccess,
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	jti := uuid.NewString()
	expiresAt := now.Add(s.refreshTTL)
	refresh, err := s.sign(jwt.MapClaims{
		"sub": userID,
		"typ": TokenTypeRefresh,
		"jti": jti,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	err = s.tokens.SaveRefreshToken(ctx, &store.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("recording refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// SignVerification mints a verification-purpose token for the given user
// with the given lifetime. It is not usable as an access or refresh token.
func (s *Service) SignVerification(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	return s.sign(jwt.MapClaims{
		"sub": userID,
		"typ": TokenTypeVerify,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
}

// VerifyAccess validates an access token and returns the user ID from
// the "sub" claim.
func (s *Service) VerifyAccess(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claimsSubject(claims, TokenTypeAccess)
}

// VerifyPurpose validates a token of the given purpose and returns the
// user ID from the "sub" claim. Used by the email verification flow.
func (s *Service) VerifyPurpose(tokenString, purpose string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claimsSubject(claims, purpose)
}

// Refresh exchanges a valid, non-blacklisted refresh token for a new
// access token. Checks run signature, expiry, then blacklist, stopping
// at the first failure.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	record, userID, err := s.lookupRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if record.Revoked() {
		return "", ErrTokenBlacklisted
	}

	now := time.Now()
	access, err := s.sign(jwt.MapClaims{
		"sub": userID,
		"typ": TokenTypeAccess,
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}

	return access, nil
}

// Revoke blacklists a refresh token. Later Refresh calls with the same
// token fail with ErrTokenBlacklisted.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	record, _, err := s.lookupRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if record.Revoked() {
		return nil
	}

	if err := s.tokens.RevokeRefreshToken(ctx, record.JTI); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}

	return nil
}

// lookupRefresh parses a refresh token and loads its server-side record.
func (s *Service) lookupRefresh(ctx context.Context, refreshToken string) (*store.RefreshToken, string, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, "", err
	}

	userID, err := claimsSubject(claims, TokenTypeRefresh)
	if err != nil {
		return nil, "", err
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, "", fmt.Errorf("%w: jti", ErrMissingClaim)
	}

	record, err := s.tokens.GetRefreshToken(ctx, jti)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			// Signed by us but never recorded: treat as malformed
			return nil, "", ErrTokenMalformed
		}
		return nil, "", fmt.Errorf("loading refresh token record: %w", err)
	}

	return record, userID, nil
}

func (s *Service) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parse validates signature and expiry, distinguishing expired tokens
// from every other decode failure.
func (s *Service) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// claimsSubject checks the token purpose and extracts the subject.
func claimsSubject(claims jwt.MapClaims, wantType string) (string, error) {
	typ, ok := claims["typ"].(string)
	if !ok || typ == "" {
		return "", fmt.Errorf("%w: typ", ErrMissingClaim)
	}
	if typ != wantType {
		return "", fmt.Errorf("%w: token type %q, want %q", ErrTokenMalformed, typ, wantType)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return sub, nil
}
