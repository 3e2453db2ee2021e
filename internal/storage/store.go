// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/findash/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned when a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnscopedFilter is returned when a transaction query has no owner.
	ErrUnscopedFilter = errors.New("transaction filter must be scoped to a user")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail looks a user up by email, case-insensitively.
	// Returns ErrNotFound if there is no such user.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if there is no such user.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUserProfile sets the non-nil fields and returns the updated user.
	UpdateUserProfile(ctx context.Context, id string, name, avatar *string) (*models.User, error)

	// ListUsers returns all users ordered by creation time.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// TransactionStore persists transactions. Every method is scoped by owner.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// CreateTransactions inserts all transactions atomically.
	CreateTransactions(ctx context.Context, txs []*models.Transaction) error

	// GetTransaction returns ErrNotFound unless id exists and belongs to userID.
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)

	// UpdateTransaction overwrites the mutable fields of tx, matching on
	// tx.ID and tx.UserID. Returns ErrNotFound when nothing matched.
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error

	// DeleteTransaction returns ErrNotFound unless id exists and belongs to userID.
	DeleteTransaction(ctx context.Context, userID, id string) error

	// FindTransactions returns the matching transactions in sort order,
	// restricted to page.
	FindTransactions(ctx context.Context, filter TransactionFilter, sort Sort, page Page) ([]*models.Transaction, error)

	// CountTransactions counts matches regardless of paging.
	CountTransactions(ctx context.Context, filter TransactionFilter) (int, error)

	// SumAmount sums Amount over the matches; 0 when there are none.
	SumAmount(ctx context.Context, filter TransactionFilter) (float64, error)

	// MonthlyTotals sums matches per calendar month and type, with months
	// taken from each transaction's date in loc. Ordered by year, month, type.
	MonthlyTotals(ctx context.Context, filter TransactionFilter, loc *time.Location) ([]MonthlyTotal, error)

	// CategoryTotals sums and counts matches per category and type.
	CategoryTotals(ctx context.Context, filter TransactionFilter) ([]CategoryTotal, error)
}

// Store combines all persistence operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	UserStore
	TransactionStore

	// Reset deletes all users and transactions.
	Reset(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
