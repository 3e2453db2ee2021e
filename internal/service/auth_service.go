package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/auth"
	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

// AuthService handles registration, login and profile management.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Session is a signed-in user and their token.
type Session struct {
	User  *models.User
	Token string
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	s.logger.Info("Register request", "email", in.Email)

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperr.Validation("Name, email, and password are required", nil)
	}
	if err := s.authenticator.ValidateCredential(in.Password); err != nil {
		message := fmt.Sprintf("Password must be at least %d characters long", auth.MinPasswordLength)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			message = fmt.Sprintf("Password must be at most %d bytes long", auth.MaxPasswordLength)
		}
		return nil, apperr.Validation(message, []models.FieldError{{Field: "password", Message: err.Error()}})
	}
	if v := models.ValidateRegistration(in.Name, in.Email, in.Password, in.Role); !v.OK() {
		return nil, apperr.FromValidation(v, "")
	}

	user, err := s.authenticator.Register(ctx, in.Name, in.Email, in.Password, in.Role)
	if errors.Is(err, auth.ErrEmailExists) {
		s.logger.Warn("Registration rejected", "email", in.Email, "error", err)
		return nil, apperr.Wrap(apperr.CodeConflict, "User already exists", "A user with this email already exists", err)
	}
	if err != nil {
		s.logger.Error("Registration failed", "email", in.Email, "error", err)
		return nil, apperr.Internal("Registration failed", "An error occurred during registration", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Registration failed", "An error occurred during registration", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return &Session{User: user, Token: token}, nil
}

// Login authenticates a user and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	s.logger.Info("Login request", "email", email)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Validation("Email and password are required", nil)
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "Invalid credentials", "Invalid email or password", err)
	}
	if err != nil {
		s.logger.Error("Login failed", "email", email, "error", err)
		return nil, apperr.Internal("Login failed", "An error occurred during login", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Login failed", "An error occurred during login", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}

// ProfileUpdate holds the mutable profile fields. Nil and empty values are
// left unchanged.
type ProfileUpdate struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// UpdateProfile changes the caller's name and/or avatar.
func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, in ProfileUpdate) (*models.User, error) {
	name := nonEmpty(in.Name)
	avatar := nonEmpty(in.Avatar)

	if v := models.ValidateProfile(name, avatar); !v.OK() {
		return nil, apperr.FromValidation(v, "")
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		name = &trimmed
	}

	updated, err := s.users.UpdateUserProfile(ctx, user.ID, name, avatar)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found", "User does not exist")
	}
	if err != nil {
		s.logger.Error("Failed to update profile", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Failed to update profile", "An error occurred while updating profile", err)
	}

	s.logger.Info("Profile updated", "user_id", user.ID)
	return updated, nil
}

// ListUsers returns every account. Callers must check the admin role first.
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", "error", err)
		return nil, apperr.Internal("Failed to fetch users", "An error occurred while fetching users", err)
	}
	return users, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
