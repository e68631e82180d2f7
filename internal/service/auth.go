// Package service contains the business logic layer:
//
//	Handler (HTTP)  → Service (rules)  → Repository (storage)
//
// Services accept primitives and return domain errors. They know nothing
// about HTTP — every public operation answers with a value or a wrapped
// apperror sentinel, and the handler layer translates from there.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/auth"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
	"github.com/sakif/miniblog/internal/session"
)

const (
	MaxUsernameLength    = 32
	MaxDisplayNameLength = 64
)

// AuthService owns identity: registration, password login, the optional
// GitHub sign-in, and the caller's logged-in state.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	sessions  *session.Manager
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	sessions *session.Manager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		sessions:  sessions,
		logger:    logger,
	}
}

// Register creates a new account.
//
// Fails with apperror.ErrValidation on bad input and apperror.ErrConflict
// when the username is taken. The password is stored only as a bcrypt
// hash; the plaintext never leaves this call.
func (s *AuthService) Register(ctx context.Context, username, displayName, password string) error {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(displayName) > MaxDisplayNameLength {
		return apperror.ValidationFailed("displayName",
			fmt.Sprintf("display name must be %d characters or less", MaxDisplayNameLength))
	}
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// ErrConflict (duplicate username) propagates as-is.
		return fmt.Errorf("registering user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", username),
	)
	return nil
}

// Login verifies the credentials and starts a session, returning its token.
//
// Unknown username and wrong password both yield ErrInvalidCredentials —
// only the exact registered username/password pair ever succeeds, and the
// caller can't probe which half was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", apperror.InvalidCredentials()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.InvalidCredentials()
		}
		return "", fmt.Errorf("looking up user %q: %w", username, err)
	}

	// Accounts created through GitHub sign-in have no password hash and
	// can never pass password login.
	if user.PasswordHash == "" {
		return "", apperror.InvalidCredentials()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.String("username", username))
		return "", apperror.InvalidCredentials()
	}

	token, err := s.sessions.Create(user.Username)
	if err != nil {
		return "", fmt.Errorf("starting session for %q: %w", username, err)
	}

	s.logger.Info("user logged in", slog.String("username", username))
	return token, nil
}

// LoginGitHub signs in a user authenticated by GitHub, creating the local
// account on first sign-in. The account is passwordless: its username is
// the GitHub login and password login stays closed for it.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	if ghUser == nil {
		return "", fmt.Errorf("github user must not be nil")
	}

	user, err := s.users.GetByUsername(ctx, ghUser.Login)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return "", fmt.Errorf("looking up github user %q: %w", ghUser.Login, err)
		}

		displayName := ghUser.Name
		if displayName == "" {
			displayName = ghUser.Login
		}
		user = &model.User{
			Username:    ghUser.Login,
			DisplayName: displayName,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return "", fmt.Errorf("creating github user %q: %w", ghUser.Login, err)
		}
		s.logger.Info("user registered via GitHub",
			slog.Int64("userID", user.ID),
			slog.String("username", user.Username),
		)
	}

	token, err := s.sessions.Create(user.Username)
	if err != nil {
		return "", fmt.Errorf("starting session for %q: %w", user.Username, err)
	}
	return token, nil
}

// CurrentUser resolves the session token to the logged-in user.
//
// An absent, expired, revoked, or garbage token means "nobody is logged
// in" and returns (nil, nil) — not an error. The only failure mode is the
// storage lookup itself.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	username, err := s.sessions.Resolve(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Session outlived the account; treat as anonymous.
			return nil, nil
		}
		return nil, fmt.Errorf("loading current user %q: %w", username, err)
	}
	return user, nil
}

// Logout destroys the session behind the token. Idempotent: logging out
// with no active session is a no-op.
func (s *AuthService) Logout(token string) {
	s.sessions.Destroy(token)
}
