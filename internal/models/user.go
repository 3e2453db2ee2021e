package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role controls which operations a user may perform.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address, stored lower-cased.
	// Unique across users, compared case-insensitively.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// It is never serialized.
	PasswordHash string `json:"-"`

	// Role is either "user" or "admin".
	Role Role `json:"role"`

	// Avatar is an optional profile picture URL.
	Avatar string `json:"avatar"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a user with a fresh ID and timestamps.
// The email is normalized; an empty role defaults to RoleUser.
func NewUser(name, email, passwordHash string, role Role) *User {
	if role == "" {
		role = RoleUser
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
