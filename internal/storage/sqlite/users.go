package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

const userColumns = "id, name, email, password_hash, role, avatar, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var avatar sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&avatar,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	user.Avatar = avatar.String
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		nullString(user.Avatar),
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)

	if isUniqueViolation(err) {
		return storage.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
// The email column is NOCASE, so the comparison ignores case.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// UpdateUserProfile updates name and/or avatar and returns the fresh row.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id string, name, avatar *string) (*models.User, error) {
	var nameArg, avatarArg any
	if name != nil {
		nameArg = *name
	}
	if avatar != nil {
		avatarArg = *avatar
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = COALESCE(?, name),
		    avatar = COALESCE(?, avatar),
		    updated_at = ?
		WHERE id = ?
	`, nameArg, avatarArg, toMillis(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return nil, storage.ErrNotFound
	}

	return s.GetUserByID(ctx, id)
}

// ListUsers returns every user, oldest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
