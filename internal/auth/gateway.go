package auth

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

// UserLookup resolves the user named by a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Gateway turns an Authorization header into the calling user.
type Gateway struct {
	jwt    *JWTManager
	users  UserLookup
	logger *slog.Logger
}

// NewGateway creates a gateway that verifies tokens with jwt and loads users from users.
func NewGateway(jwt *JWTManager, users UserLookup, logger *slog.Logger) *Gateway {
	return &Gateway{jwt: jwt, users: users, logger: logger}
}

// Authenticate verifies a "Bearer <token>" header and returns the user it names.
// Failures are *apperr.Error with CodeUnauthenticated.
func (g *Gateway) Authenticate(ctx context.Context, header string) (*models.User, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "Access denied", "No token provided")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "Invalid token", "Token verification failed", ErrMissingToken)
	}

	claims, err := g.jwt.Validate(token)
	if err != nil {
		g.logger.Debug("Token rejected", "error", err)
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "Invalid token", "Token verification failed", err)
	}

	user, err := g.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "Invalid token", "User not found", err)
	}
	if err != nil {
		return nil, apperr.Internal("Invalid token", "Token verification failed", err)
	}

	return user, nil
}

// Authorize checks that user holds one of roles.
func (g *Gateway) Authorize(user *models.User, roles ...models.Role) error {
	if user == nil {
		return apperr.New(apperr.CodeUnauthenticated, "Access denied", "Authentication required")
	}
	if !slices.Contains(roles, user.Role) {
		return apperr.New(apperr.CodeForbidden, "Forbidden", "Insufficient permissions")
	}
	return nil
}
