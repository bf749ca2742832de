// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// It orchestrates the Google OAuth callback (upsert the user, issue the
// session token) and the admin capability login, keeping both away from HTTP
// concerns so they're testable with mocks.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abenhamida/minemods/internal/apperror"
	"github.com/abenhamida/minemods/internal/auth"
	"github.com/abenhamida/minemods/internal/model"
	"github.com/abenhamida/minemods/internal/repository"
)

// AuthService handles the authentication business logic.
type AuthService struct {
	users             repository.UserRepository
	tokens            *auth.TokenService
	passwords         *auth.PasswordService
	adminPasswordHash string
	logger            *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// adminPasswordHash is the bcrypt hash the admin login verifies against; an
// empty hash disables the admin login entirely.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	adminPasswordHash string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:             users,
		tokens:            tokens,
		passwords:         passwords,
		adminPasswordHash: adminPasswordHash,
		logger:            logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGoogle handles the Google OAuth callback.
//
// After the handler exchanges the authorization code for a GoogleUser
// profile, this method:
//
//  1. Upserts the user keyed on the Google subject (create on first login,
//     refresh name/email/picture on subsequent logins)
//  2. Issues a signed session token for the internal user ID
//
// It does NOT set cookies or read requests — those are handler concerns.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user := &model.User{
		GoogleID: gUser.ID,
		Email:    gUser.Email,
		Name:     gUser.Name,
		Picture:  gUser.Picture,
	}

	// After Upsert, user.ID is populated by the repository.
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user: %w", err)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	token, err := s.tokens.GenerateSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating session for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// AdminLogin verifies the shared admin password and, on success, returns a
// signed admin capability token for the handler to set as a cookie.
//
// Wrong password → apperror.ErrUnauthorized (handlers map it to 401). The
// bcrypt comparison is constant-time; nothing about the stored hash or the
// guess leaks through timing.
func (s *AuthService) AdminLogin(password string) (string, error) {
	if s.adminPasswordHash == "" {
		s.logger.Warn("admin login attempted but no admin password hash is configured")
		return "", apperror.Unauthorized("admin login is not configured")
	}

	if err := s.passwords.Verify(s.adminPasswordHash, password); err != nil {
		s.logger.Warn("admin login failed")
		return "", apperror.Unauthorized("invalid password")
	}

	token, err := s.tokens.GenerateAdmin()
	if err != nil {
		return "", fmt.Errorf("service/auth: generating admin token: %w", err)
	}

	s.logger.Info("admin capability granted")
	return token, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware validates the session cookie.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
