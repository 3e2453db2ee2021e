package auth

import (
	"context"

	"github.com/mmynk/findash/internal/models"
)

// Authenticator verifies user credentials.
// PasswordAuthenticator is the only implementation today.
type Authenticator interface {
	// Register creates a new account. The credential format depends on the
	// implementation. Returns ErrEmailExists when the email is taken.
	Register(ctx context.Context, name, email, credential string, role models.Role) (*models.User, error)

	// Authenticate returns the user whose credentials match, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

var _ Authenticator = (*PasswordAuthenticator)(nil)
