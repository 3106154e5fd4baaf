package service

import (
	"context"
	"log/slog"

	"ajopot/internal/apperr"
	"ajopot/internal/auth"
	"ajopot/internal/models"
)

// AuthService handles account registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Session is an authenticated user plus their bearer token.
type Session struct {
	User  *models.User
	Token string
}

// Register creates a new user account and returns a session.
func (s *AuthService) Register(ctx context.Context, username, displayName, password string) (*Session, error) {
	if username == "" || displayName == "" {
		return nil, apperr.BadRequest("username and display name are required")
	}

	user, err := s.authenticator.Register(ctx, username, displayName, password)
	if err != nil {
		if err == auth.ErrWeakPassword {
			return nil, apperr.BadRequest("%v", err)
		}
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	return &Session{User: user, Token: token}, nil
}

// Login authenticates a user and returns a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperr.BadRequest("username and password are required")
	}

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		slog.Warn("Login failed", "username", username)
		return nil, apperr.Forbidden("invalid username or password")
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("User logged in", "user_id", user.ID, "username", user.Username)
	return &Session{User: user, Token: token}, nil
}
