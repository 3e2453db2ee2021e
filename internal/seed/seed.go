// Package seed fills a store with sample users and transactions for local
// development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/mmynk/findash/internal/auth"
	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

const (
	// DefaultPassword is the password of every sample user.
	DefaultPassword = "password123"

	// TransactionsPerUser is how many transactions each sample user gets.
	TransactionsPerUser = 50

	// historyDays bounds how far back sample dates go.
	historyDays = 180
)

// SampleUser describes one seeded account.
type SampleUser struct {
	Name   string
	Email  string
	Role   models.Role
	Avatar string
}

// Users are the accounts created by Run.
var Users = []SampleUser{
	{Name: "John Doe", Email: "john@example.com", Role: models.RoleUser, Avatar: "https://mui.com/static/images/avatar/1.jpg"},
	{Name: "Jane Smith", Email: "jane@example.com", Role: models.RoleAdmin, Avatar: "https://mui.com/static/images/avatar/2.jpg"},
}

type counterparty struct {
	name, email, avatar string
}

var counterparties = []counterparty{
	{"Matheus Ferreira", "matheus@example.com", "https://mui.com/static/images/avatar/1.jpg"},
	{"Floyd Miles", "floyd@example.com", "https://mui.com/static/images/avatar/2.jpg"},
	{"Jerome Bell", "jerome@example.com", "https://mui.com/static/images/avatar/3.jpg"},
	{"Emily Johnson", "emily@example.com", "https://mui.com/static/images/avatar/4.jpg"},
	{"Michael Brown", "michael@example.com", "https://mui.com/static/images/avatar/5.jpg"},
	{"Sarah Wilson", "sarah@example.com", "https://mui.com/static/images/avatar/6.jpg"},
}

var (
	incomeCategories  = []models.Category{models.CategoryRevenue, models.CategoryInvestment, models.CategoryOther}
	expenseCategories = []models.Category{models.CategoryExpenses, models.CategoryTransfer, models.CategoryOther}
	incomeStatuses    = []models.Status{models.StatusCompleted, models.StatusPending}
	expenseStatuses   = []models.Status{models.StatusCompleted, models.StatusPending, models.StatusFailed}
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Store is what the seeder writes to.
type Store interface {
	auth.UserStorage
	UpdateUserProfile(ctx context.Context, id string, name, avatar *string) (*models.User, error)
	CreateTransactions(ctx context.Context, txs []*models.Transaction) error
	Reset(ctx context.Context) error
}

// Seeder creates sample data.
type Seeder struct {
	store         Store
	authenticator *auth.PasswordAuthenticator
	rng           *rand.Rand
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithRand makes the generated data reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Seeder) { s.rng = rng }
}

// WithClock sets the reference time for transaction dates.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// New creates a Seeder writing to store.
func New(store Store, authenticator *auth.PasswordAuthenticator, logger *slog.Logger, opts ...Option) *Seeder {
	s := &Seeder{
		store:         store,
		authenticator: authenticator,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result counts what Run created.
type Result struct {
	Users        int
	Transactions int
	Skipped      []string
}

// Run creates the sample users, each with TransactionsPerUser transactions.
// With reset, all existing users and transactions are removed first;
// otherwise sample users that already exist are skipped.
func (s *Seeder) Run(ctx context.Context, reset bool) (*Result, error) {
	if reset {
		if err := s.store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear existing data: %w", err)
		}
		s.logger.Info("Cleared existing data")
	}

	res := &Result{}
	for _, su := range Users {
		user, err := s.authenticator.Register(ctx, su.Name, su.Email, DefaultPassword, su.Role)
		if errors.Is(err, auth.ErrEmailExists) {
			s.logger.Warn("Sample user already exists, skipping", "email", su.Email)
			res.Skipped = append(res.Skipped, su.Email)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", su.Email, err)
		}

		avatar := su.Avatar
		if _, err := s.store.UpdateUserProfile(ctx, user.ID, nil, &avatar); err != nil {
			return nil, fmt.Errorf("failed to set avatar for %s: %w", su.Email, err)
		}
		res.Users++
		s.logger.Info("Created user", "email", user.Email, "role", user.Role)

		txs := s.Transactions(user.ID, TransactionsPerUser)
		if err := s.store.CreateTransactions(ctx, txs); err != nil {
			return nil, fmt.Errorf("failed to create transactions for %s: %w", su.Email, err)
		}
		res.Transactions += len(txs)
		s.logger.Info("Created transactions", "email", user.Email, "count", len(txs))
	}

	return res, nil
}

// Transactions generates n random transactions owned by userID, dated
// within the last historyDays days. About 60% are income.
func (s *Seeder) Transactions(userID string, n int) []*models.Transaction {
	now := s.now()
	txs := make([]*models.Transaction, 0, n)

	for range n {
		cp := counterparties[s.rng.IntN(len(counterparties))]
		isIncome := s.rng.Float64() > 0.4

		typ, kind := models.TypeExpense, "expense"
		categories, statuses := expenseCategories, expenseStatuses
		if isIncome {
			typ, kind = models.TypeIncome, "income"
			categories, statuses = incomeCategories, incomeStatuses
		}

		txs = append(txs, models.NewTransaction(userID, models.Transaction{
			Name:        cp.name,
			Email:       cp.email,
			Avatar:      cp.avatar,
			Date:        now.AddDate(0, 0, -s.rng.IntN(historyDays)),
			Amount:      float64(s.rng.IntN(1000) + 50),
			Type:        typ,
			Category:    categories[s.rng.IntN(len(categories))],
			Status:      statuses[s.rng.IntN(len(statuses))],
			Description: fmt.Sprintf("Sample %s transaction", kind),
			Reference:   s.reference(),
		}))
	}
	return txs
}

func (s *Seeder) reference() string {
	var b strings.Builder
	b.WriteString("REF")
	for range 9 {
		b.WriteByte(referenceAlphabet[s.rng.IntN(len(referenceAlphabet))])
	}
	return b.String()
}

var _ Store = (storage.Store)(nil)
