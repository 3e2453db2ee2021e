package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/models"
)

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	session, err := env.auth.Register(ctx, RegisterInput{
		Name:     "  Alice  ",
		Email:    "Alice@Example.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, session.User.ID)
	assert.Equal(t, "Alice", session.User.Name)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)

	claims, err := env.jwt.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      RegisterInput
		message string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret1"}, "Name, email, and password are required"},
		{"missing email", RegisterInput{Name: "A", Password: "secret1"}, "Name, email, and password are required"},
		{"missing password", RegisterInput{Name: "A", Email: "a@b.co"}, "Name, email, and password are required"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "12345"}, "Password must be at least 6 characters long"},
		{"long password", RegisterInput{Name: "A", Email: "a@b.co", Password: strings.Repeat("x", 80)}, "Password must be at most 72 bytes long"},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}, "Please enter a valid email"},
		{"bad role", RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1", Role: "root"}, "Role must be one of user, admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServices(t)
			_, err := env.auth.Register(context.Background(), tt.in)
			appErr := requireCode(t, err, apperr.CodeValidation)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterInput{Name: "Other", Email: "ALICE@example.com", Password: "secret2"})
	appErr := requireCode(t, err, apperr.CodeConflict)
	assert.Equal(t, "User already exists", appErr.Tag)
	assert.Equal(t, 400, appErr.Code.HTTPStatus())
}

func TestLogin(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	session, err := env.auth.Login(ctx, " ALICE@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, session.User.ID)
	assert.NotEmpty(t, session.Token)

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "alice@example.com", "wrong-pass")
		appErr := requireCode(t, err, apperr.CodeUnauthenticated)
		assert.Equal(t, "Invalid credentials", appErr.Tag)
		assert.Equal(t, "Invalid email or password", appErr.Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "nobody@example.com", "secret1")
		appErr := requireCode(t, err, apperr.CodeUnauthenticated)
		assert.Equal(t, "Invalid email or password", appErr.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "", "secret1")
		appErr := requireCode(t, err, apperr.CodeValidation)
		assert.Equal(t, "Email and password are required", appErr.Message)
	})
}

func TestUpdateProfile(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	session, err := env.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := env.auth.UpdateProfile(ctx, session.User, ProfileUpdate{
		Name:   strPtr("  Alice Smith "),
		Avatar: strPtr("https://example.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.Equal(t, "https://example.com/a.png", updated.Avatar)

	// Empty values leave the profile unchanged.
	updated, err = env.auth.UpdateProfile(ctx, session.User, ProfileUpdate{Name: strPtr(""), Avatar: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.Equal(t, "https://example.com/a.png", updated.Avatar)

	_, err = env.auth.UpdateProfile(ctx, session.User, ProfileUpdate{Name: strPtr(strings.Repeat("a", 51))})
	requireCode(t, err, apperr.CodeValidation)

	_, err = env.auth.UpdateProfile(ctx, &models.User{ID: "missing"}, ProfileUpdate{Name: strPtr("Ghost")})
	appErr := requireCode(t, err, apperr.CodeNotFound)
	assert.Equal(t, "User not found", appErr.Tag)
}

func TestListUsers(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := env.auth.Register(ctx, RegisterInput{Name: "User", Email: email, Password: "secret1"})
		require.NoError(t, err)
	}

	users, err := env.auth.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
