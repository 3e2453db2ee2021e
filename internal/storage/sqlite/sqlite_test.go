package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

// StoreTestSuite runs every test against a fresh database file.
type StoreTestSuite struct {
	suite.Suite
	store *SQLiteStore
	ctx   context.Context
	alice *models.User
	bob   *models.User
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	dbPath := filepath.Join(s.T().TempDir(), "test.db")
	store, err := New(dbPath)
	require.NoError(s.T(), err, "failed to create test database")
	s.store = store
	s.ctx = context.Background()

	s.alice = models.NewUser("Alice", "alice@example.com", "hash", models.RoleUser)
	s.bob = models.NewUser("Bob", "bob@example.com", "hash", models.RoleAdmin)
	require.NoError(s.T(), s.store.CreateUser(s.ctx, s.alice))
	require.NoError(s.T(), s.store.CreateUser(s.ctx, s.bob))
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreTestSuite) addTx(owner *models.User, tx models.Transaction) *models.Transaction {
	if tx.Email == "" {
		tx.Email = "counterparty@example.com"
	}
	if tx.Category == "" {
		tx.Category = models.CategoryOther
	}
	created := models.NewTransaction(owner.ID, tx)
	require.NoError(s.T(), s.store.CreateTransaction(s.ctx, created))
	return created
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func (s *StoreTestSuite) TestUserLookup() {
	got, err := s.store.GetUserByEmail(s.ctx, "ALICE@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.alice.ID, got.ID)
	assert.Equal(s.T(), models.RoleUser, got.Role)

	got, err = s.store.GetUserByID(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "bob@example.com", got.Email)
	assert.Equal(s.T(), models.RoleAdmin, got.Role)

	_, err = s.store.GetUserByID(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)

	_, err = s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreTestSuite) TestDuplicateEmailIsRejected() {
	dup := models.NewUser("Alice Again", "Alice@Example.com", "hash", models.RoleUser)
	dup.Email = "Alice@Example.com" // bypass normalization to exercise NOCASE
	err := s.store.CreateUser(s.ctx, dup)
	assert.ErrorIs(s.T(), err, storage.ErrEmailTaken)
}

func (s *StoreTestSuite) TestUpdateUserProfile() {
	avatar := "https://example.com/a.png"
	got, err := s.store.UpdateUserProfile(s.ctx, s.alice.ID, nil, &avatar)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Alice", got.Name)
	assert.Equal(s.T(), avatar, got.Avatar)

	name := "Alice Cooper"
	got, err = s.store.UpdateUserProfile(s.ctx, s.alice.ID, &name, nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), name, got.Name)
	assert.Equal(s.T(), avatar, got.Avatar)

	_, err = s.store.UpdateUserProfile(s.ctx, "missing", &name, nil)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreTestSuite) TestListUsers() {
	users, err := s.store.ListUsers(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), users, 2)
}

func (s *StoreTestSuite) TestTransactionRoundTrip() {
	created := s.addTx(s.alice, models.Transaction{
		Name:        "Jerome Bell",
		Email:       "jerome@example.com",
		Date:        day(2024, time.March, 5),
		Amount:      250.75,
		Type:        models.TypeIncome,
		Category:    models.CategoryRevenue,
		Description: "Consulting",
		Reference:   "REF123",
	})

	got, err := s.store.GetTransaction(s.ctx, s.alice.ID, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.Name, got.Name)
	assert.Equal(s.T(), created.Amount, got.Amount)
	assert.Equal(s.T(), created.Type, got.Type)
	assert.Equal(s.T(), created.Category, got.Category)
	assert.Equal(s.T(), models.StatusCompleted, got.Status)
	assert.Equal(s.T(), "Consulting", got.Description)
	assert.Equal(s.T(), "", got.Avatar)
	assert.True(s.T(), created.Date.Equal(got.Date), "date: got %v want %v", got.Date, created.Date)
}

func (s *StoreTestSuite) TestOwnerScoping() {
	tx := s.addTx(s.alice, models.Transaction{Name: "Private", Amount: 10, Type: models.TypeIncome, Date: day(2024, 1, 1)})

	_, err := s.store.GetTransaction(s.ctx, s.bob.ID, tx.ID)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)

	stolen := *tx
	stolen.UserID = s.bob.ID
	stolen.Amount = 9999
	assert.ErrorIs(s.T(), s.store.UpdateTransaction(s.ctx, &stolen), storage.ErrNotFound)

	assert.ErrorIs(s.T(), s.store.DeleteTransaction(s.ctx, s.bob.ID, tx.ID), storage.ErrNotFound)

	got, err := s.store.GetTransaction(s.ctx, s.alice.ID, tx.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 10.0, got.Amount)

	require.NoError(s.T(), s.store.DeleteTransaction(s.ctx, s.alice.ID, tx.ID))
	_, err = s.store.GetTransaction(s.ctx, s.alice.ID, tx.ID)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreTestSuite) TestUnscopedFilterIsRejected() {
	_, err := s.store.FindTransactions(s.ctx, storage.TransactionFilter{}, storage.DefaultSort, storage.Page{})
	assert.ErrorIs(s.T(), err, storage.ErrUnscopedFilter)

	_, err = s.store.CountTransactions(s.ctx, storage.TransactionFilter{})
	assert.ErrorIs(s.T(), err, storage.ErrUnscopedFilter)
}

func (s *StoreTestSuite) TestFindWithFilterSortAndPage() {
	s.addTx(s.alice, models.Transaction{Name: "Jerome Bell", Amount: 300, Type: models.TypeIncome, Date: day(2024, 1, 10)})
	s.addTx(s.alice, models.Transaction{Name: "Floyd Miles", Amount: 100, Type: models.TypeExpense, Date: day(2024, 2, 10)})
	s.addTx(s.alice, models.Transaction{Name: "Emily Johnson", Amount: 200, Type: models.TypeIncome, Date: day(2024, 3, 10), Reference: "INV_42"})
	s.addTx(s.bob, models.Transaction{Name: "Jerome Bell", Amount: 999, Type: models.TypeIncome, Date: day(2024, 1, 10)})

	base := storage.TransactionFilter{UserID: s.alice.ID}

	s.Run("default sort is newest first", func() {
		txs, err := s.store.FindTransactions(s.ctx, base, storage.DefaultSort, storage.Page{})
		require.NoError(s.T(), err)
		require.Len(s.T(), txs, 3)
		assert.Equal(s.T(), "Emily Johnson", txs[0].Name)
		assert.Equal(s.T(), "Jerome Bell", txs[2].Name)
	})

	s.Run("search is case-insensitive substring", func() {
		f := base
		f.Search = "jerome"
		txs, err := s.store.FindTransactions(s.ctx, f, storage.DefaultSort, storage.Page{})
		require.NoError(s.T(), err)
		require.Len(s.T(), txs, 1)
		assert.Equal(s.T(), 300.0, txs[0].Amount)
	})

	s.Run("search treats wildcards literally", func() {
		f := base
		f.Search = "_42"
		count, err := s.store.CountTransactions(s.ctx, f)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 1, count)

		f.Search = "%"
		count, err = s.store.CountTransactions(s.ctx, f)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 0, count)
	})

	s.Run("type filter and amount sort", func() {
		f := base
		f.Type = models.TypeIncome
		txs, err := s.store.FindTransactions(s.ctx, f, storage.Sort{Field: storage.SortByAmount}, storage.Page{})
		require.NoError(s.T(), err)
		require.Len(s.T(), txs, 2)
		assert.Equal(s.T(), 200.0, txs[0].Amount)
		assert.Equal(s.T(), 300.0, txs[1].Amount)
	})

	s.Run("date range with one bound", func() {
		from := day(2024, 2, 1)
		f := base
		f.From = &from
		count, err := s.store.CountTransactions(s.ctx, f)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 2, count)
	})

	s.Run("inclusive bounds", func() {
		from, to := day(2024, 2, 10), day(2024, 2, 10)
		f := base
		f.From, f.To = &from, &to
		count, err := s.store.CountTransactions(s.ctx, f)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 1, count)
	})

	s.Run("paging", func() {
		txs, err := s.store.FindTransactions(s.ctx, base, storage.DefaultSort, storage.Page{Offset: 2, Limit: 2})
		require.NoError(s.T(), err)
		require.Len(s.T(), txs, 1)
		assert.Equal(s.T(), "Jerome Bell", txs[0].Name)
	})
}

func (s *StoreTestSuite) TestAggregates() {
	s.addTx(s.alice, models.Transaction{Name: "A", Amount: 100, Type: models.TypeIncome, Category: models.CategoryRevenue, Date: day(2024, 1, 10)})
	s.addTx(s.alice, models.Transaction{Name: "B", Amount: 50, Type: models.TypeIncome, Category: models.CategoryRevenue, Date: day(2024, 1, 20)})
	s.addTx(s.alice, models.Transaction{Name: "C", Amount: 40, Type: models.TypeExpense, Category: models.CategoryExpenses, Date: day(2024, 2, 3)})
	s.addTx(s.bob, models.Transaction{Name: "D", Amount: 1000, Type: models.TypeIncome, Date: day(2024, 1, 10)})

	base := storage.TransactionFilter{UserID: s.alice.ID}

	income := base
	income.Type = models.TypeIncome
	sum, err := s.store.SumAmount(s.ctx, income)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 150.0, sum)

	empty := storage.TransactionFilter{UserID: "nobody"}
	sum, err = s.store.SumAmount(s.ctx, empty)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0.0, sum)

	monthly, err := s.store.MonthlyTotals(s.ctx, base, time.UTC)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []storage.MonthlyTotal{
		{Year: 2024, Month: 1, Type: models.TypeIncome, Total: 150},
		{Year: 2024, Month: 2, Type: models.TypeExpense, Total: 40},
	}, monthly)

	categories, err := s.store.CategoryTotals(s.ctx, base)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []storage.CategoryTotal{
		{Category: models.CategoryExpenses, Type: models.TypeExpense, Total: 40, Count: 1},
		{Category: models.CategoryRevenue, Type: models.TypeIncome, Total: 150, Count: 2},
	}, categories)
}

func (s *StoreTestSuite) TestBatchInsertAndReset() {
	batch := []*models.Transaction{
		models.NewTransaction(s.alice.ID, models.Transaction{Name: "A", Email: "a@x.io", Amount: 1, Type: models.TypeIncome}),
		models.NewTransaction(s.alice.ID, models.Transaction{Name: "B", Email: "b@x.io", Amount: 2, Type: models.TypeExpense}),
	}
	require.NoError(s.T(), s.store.CreateTransactions(s.ctx, batch))

	count, err := s.store.CountTransactions(s.ctx, storage.TransactionFilter{UserID: s.alice.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, count)

	require.NoError(s.T(), s.store.Reset(s.ctx))
	users, err := s.store.ListUsers(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), users)
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "reopen.db")

	store, err := New(dbPath)
	require.NoError(t, err)
	user := models.NewUser("Carol", "carol@example.com", "hash", models.RoleUser)
	require.NoError(t, store.CreateUser(context.Background(), user))
	require.NoError(t, store.Close())

	store, err = New(dbPath)
	require.NoError(t, err, "migrations must be idempotent")
	defer store.Close()

	got, err := store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)
}
