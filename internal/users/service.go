// ABOUTME: User account service: creation, superuser elevation, and authentication
// ABOUTME: Passwords are bcrypt-hashed here; the raw password never reaches the store

package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/droneworks/droneport/internal/store"
)

// ErrEmailRequired is returned when account creation is attempted without an email.
var ErrEmailRequired = errors.New("user must have an email address")

// ErrPasswordTooShort is returned when the password is under the minimum length.
var ErrPasswordTooShort = errors.New("password must be at least 5 characters")

// ErrSuperuserFlags is returned when a superuser is created with staff or
// superuser explicitly disabled.
var ErrSuperuserFlags = errors.New("superuser must be assigned is_staff and is_superuser")

// ErrInvalidCredentials is returned when email/password authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 5

// dummyHash keeps bcrypt comparison time constant when the user doesn't
// exist, so login timing can't enumerate registered emails.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// CreateParams holds the fields accepted at account creation.
type CreateParams struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Bio       string

	// Flag overrides, used by CreateSuperuser. A nil pointer means
	// "use the default for this account kind".
	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
}

// Service creates and authenticates user accounts.
type Service struct {
	store  store.UserStore
	logger *slog.Logger
}

// NewService creates a user account service backed by the given store.
func NewService(userStore store.UserStore) *Service {
	return &Service{
		store:  userStore,
		logger: slog.Default().With("component", "users"),
	}
}

// Create registers a normal user account. The password is hashed before
// persistence; duplicate email/username errors from the store pass
// through untranslated.
func (s *Service) Create(ctx context.Context, params CreateParams) (*store.User, error) {
	if params.Email == "" {
		return nil, ErrEmailRequired
	}
	if len(params.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(params.Email),
		Username:     params.Username,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Bio:          params.Bio,
		PasswordHash: string(hash),
		IsActive:     boolOr(params.IsActive, true),
		IsStaff:      boolOr(params.IsStaff, false),
		IsSuperuser:  boolOr(params.IsSuperuser, false),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// CreateSuperuser registers a staff superuser account. Staff, superuser,
// and active default to true; explicitly disabling staff or superuser
// fails with ErrSuperuserFlags.
func (s *Service) CreateSuperuser(ctx context.Context, params CreateParams) (*store.User, error) {
	if params.IsStaff != nil && !*params.IsStaff {
		return nil, ErrSuperuserFlags
	}
	if params.IsSuperuser != nil && !*params.IsSuperuser {
		return nil, ErrSuperuserFlags
	}

	enabled := true
	params.IsStaff = &enabled
	params.IsSuperuser = &enabled
	if params.IsActive == nil {
		params.IsActive = &enabled
	}

	user, err := s.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info("created superuser", "id", user.ID, "email", user.Email)
	return user, nil
}

// Authenticate verifies an email/password pair and returns the matching
// user. The bcrypt comparison runs even when the email is unknown so the
// response time doesn't reveal which emails exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// normalizeEmail lowercases the domain part of an email address.
func normalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}
