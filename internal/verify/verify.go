// ABOUTME: Email verification flow: signed link generation and consumption
// ABOUTME: Consuming a valid token flips the user's verified flag exactly once

package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/droneworks/droneport/internal/auth"
	"github.com/droneworks/droneport/internal/mail"
	"github.com/droneworks/droneport/internal/store"
)

// ErrLinkExpired is returned when a verification token has expired.
var ErrLinkExpired = errors.New("activation link expired")

// ErrInvalidToken is returned for any structurally invalid verification token.
var ErrInvalidToken = errors.New("invalid token")

// VerifyPath is the callback path embedded in verification links.
const VerifyPath = "/api/v1/auth/verify-email"

// TokenSigner signs and checks verification-purpose tokens.
type TokenSigner interface {
	SignVerification(userID string, ttl time.Duration) (string, error)
	VerifyPurpose(tokenString, purpose string) (string, error)
}

// Flow generates verification links, dispatches them by email, and
// consumes the tokens coming back.
type Flow struct {
	signer  TokenSigner
	users   store.UserStore
	sender  mail.Sender
	baseURL string
	ttl     time.Duration
	logger  *slog.Logger
}

// NewFlow creates a verification flow. baseURL is the external URL the
// callback link is built against; ttl bounds how long a link stays valid.
func NewFlow(signer TokenSigner, users store.UserStore, sender mail.Sender, baseURL string, ttl time.Duration) *Flow {
	return &Flow{
		signer:  signer,
		users:   users,
		sender:  sender,
		baseURL: baseURL,
		ttl:     ttl,
		logger:  slog.Default().With("component", "verify"),
	}
}

// GenerateLink builds the signed verification URL for a user.
func (f *Flow) GenerateLink(user *store.User) (string, error) {
	token, err := f.signer.SignVerification(user.ID, f.ttl)
	if err != nil {
		return "", fmt.Errorf("signing verification token: %w", err)
	}

	return f.baseURL + VerifyPath + "?token=" + url.QueryEscape(token), nil
}

// SendVerificationEmail generates a link and dispatches it to the user's
// email address. Delivery failure is logged, never returned: the caller's
// registration response must not depend on the mail relay.
func (f *Flow) SendVerificationEmail(ctx context.Context, user *store.User) {
	link, err := f.GenerateLink(user)
	if err != nil {
		f.logger.Error("failed to generate verification link", "user_id", user.ID, "error", err)
		return
	}

	body := fmt.Sprintf("%s, use the link below to verify your email \n %s", user.Username, link)
	if err := f.sender.Send(ctx, "verify your email", body, user.Email); err != nil {
		f.logger.Error("failed to send verification email", "user_id", user.ID, "error", err)
	}
}

// Consume validates a verification token and marks the referenced user
// verified. A token for an already verified user succeeds idempotently
// with no write.
func (f *Flow) Consume(ctx context.Context, token string) error {
	userID, err := f.signer.VerifyPurpose(token, auth.TokenTypeVerify)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return ErrLinkExpired
		}
		return ErrInvalidToken
	}

	user, err := f.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("loading user: %w", err)
	}

	if user.IsVerified {
		return nil
	}

	if err := f.users.MarkUserVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("marking user verified: %w", err)
	}

	return nil
}
