package report

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
	"github.com/mmynk/findash/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*Engine, *sqlite.SQLiteStore, *models.User) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	user := models.NewUser("Alice", "alice@example.com", "hash", models.RoleUser)
	require.NoError(t, store.CreateUser(context.Background(), user))

	engine := NewEngine(store,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
	return engine, store, user
}

func addTx(t *testing.T, store *sqlite.SQLiteStore, userID string, typ models.TransactionType, cat models.Category, amount float64, date time.Time) {
	t.Helper()
	tx := models.NewTransaction(userID, models.Transaction{
		Name:     "Counterparty",
		Email:    "c@example.com",
		Amount:   amount,
		Type:     typ,
		Category: cat,
		Date:     date,
	})
	require.NoError(t, store.CreateTransaction(context.Background(), tx))
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 999_000_000, time.UTC), end)

	start, end = MonthBounds(time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, time.December, 31, 23, 59, 59, 999_000_000, time.UTC), end)
}

func TestTrendStart(t *testing.T) {
	assert.Equal(t,
		time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		TrendStart(fixedNow, time.UTC),
	)
}

func TestDashboardEmpty(t *testing.T) {
	engine, _, user := setupEngine(t)

	stats, err := engine.Dashboard(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalIncome)
	assert.Zero(t, stats.TotalExpenses)
	assert.Zero(t, stats.Balance)
	assert.Zero(t, stats.MonthlyBalance)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalIncome": 0, "totalExpenses": 0,
		"monthlyIncome": 0, "monthlyExpenses": 0,
		"balance": 0, "monthlyBalance": 0,
		"recentTransactions": [], "monthlyTrends": [], "categoryBreakdown": []
	}`, string(data))
}

func TestDashboardIncomeMinusExpense(t *testing.T) {
	engine, store, user := setupEngine(t)
	addTx(t, store, user.ID, models.TypeIncome, models.CategoryRevenue, 100, fixedNow.AddDate(0, 0, -1))
	addTx(t, store, user.ID, models.TypeExpense, models.CategoryExpenses, 40, fixedNow.AddDate(0, 0, -2))

	stats, err := engine.Dashboard(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, stats.TotalIncome)
	assert.Equal(t, 40.0, stats.TotalExpenses)
	assert.Equal(t, 60.0, stats.Balance)
	assert.Equal(t, 100.0, stats.MonthlyIncome)
	assert.Equal(t, 40.0, stats.MonthlyExpenses)
	assert.Equal(t, 60.0, stats.MonthlyBalance)
	assert.Len(t, stats.RecentTransactions, 2)
}

func TestDashboardWindows(t *testing.T) {
	engine, store, user := setupEngine(t)
	other := models.NewUser("Bob", "bob@example.com", "hash", models.RoleUser)
	require.NoError(t, store.CreateUser(context.Background(), other))

	// Current month, including both edges.
	addTx(t, store, user.ID, models.TypeIncome, models.CategoryRevenue, 10, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	addTx(t, store, user.ID, models.TypeIncome, models.CategoryRevenue, 20, time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC))
	// Previous month.
	addTx(t, store, user.ID, models.TypeExpense, models.CategoryTransfer, 5, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	// Inside the trend window's first month.
	addTx(t, store, user.ID, models.TypeExpense, models.CategoryExpenses, 7, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	// Before the trend window.
	addTx(t, store, user.ID, models.TypeIncome, models.CategoryInvestment, 1000, time.Date(2023, 5, 31, 23, 0, 0, 0, time.UTC))
	// Another user's data never leaks in.
	addTx(t, store, other.ID, models.TypeIncome, models.CategoryRevenue, 5000, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

	stats, err := engine.Dashboard(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1030.0, stats.TotalIncome)
	assert.Equal(t, 12.0, stats.TotalExpenses)
	assert.Equal(t, stats.TotalIncome-stats.TotalExpenses, stats.Balance)
	assert.Equal(t, 30.0, stats.MonthlyIncome)
	assert.Equal(t, 0.0, stats.MonthlyExpenses)

	assert.Equal(t, []MonthlyTrend{
		{ID: MonthKey{Year: 2023, Month: 6, Type: models.TypeExpense}, Total: 7},
		{ID: MonthKey{Year: 2024, Month: 5, Type: models.TypeExpense}, Total: 5},
		{ID: MonthKey{Year: 2024, Month: 6, Type: models.TypeIncome}, Total: 30},
	}, stats.MonthlyTrends)

	assert.ElementsMatch(t, []CategoryBreakdown{
		{ID: CategoryKey{Category: models.CategoryRevenue, Type: models.TypeIncome}, Total: 30, Count: 2},
		{ID: CategoryKey{Category: models.CategoryTransfer, Type: models.TypeExpense}, Total: 5, Count: 1},
		{ID: CategoryKey{Category: models.CategoryExpenses, Type: models.TypeExpense}, Total: 7, Count: 1},
		{ID: CategoryKey{Category: models.CategoryInvestment, Type: models.TypeIncome}, Total: 1000, Count: 1},
	}, stats.CategoryBreakdown)

	require.Len(t, stats.RecentTransactions, RecentLimit)
	assert.Equal(t, 20.0, stats.RecentTransactions[0].Amount, "newest first")
	for i := 1; i < len(stats.RecentTransactions); i++ {
		assert.False(t, stats.RecentTransactions[i].Date.After(stats.RecentTransactions[i-1].Date))
	}
}

func TestDashboardUsesLocation(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "tz.db"))
	require.NoError(t, err)
	defer store.Close()

	user := models.NewUser("Tz", "tz@example.com", "hash", models.RoleUser)
	require.NoError(t, store.CreateUser(context.Background(), user))

	// 23:30 UTC on May 31 is already June 1 in UTC+2.
	addTx(t, store, user.ID, models.TypeIncome, models.CategoryRevenue, 50, time.Date(2024, 5, 31, 23, 30, 0, 0, time.UTC))

	loc := time.FixedZone("UTC+2", 2*60*60)
	engine := NewEngine(store, WithClock(func() time.Time { return fixedNow }), WithLocation(loc))

	stats, err := engine.Dashboard(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.MonthlyIncome)
	require.Len(t, stats.MonthlyTrends, 1)
	assert.Equal(t, 6, stats.MonthlyTrends[0].ID.Month)
}

type failingSource struct {
	storage.TransactionStore
}

func (failingSource) SumAmount(ctx context.Context, f storage.TransactionFilter) (float64, error) {
	return 0, errors.New("disk on fire")
}

func (failingSource) FindTransactions(ctx context.Context, f storage.TransactionFilter, s storage.Sort, p storage.Page) ([]*models.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (failingSource) MonthlyTotals(ctx context.Context, f storage.TransactionFilter, loc *time.Location) ([]storage.MonthlyTotal, error) {
	return nil, nil
}

func (failingSource) CategoryTotals(ctx context.Context, f storage.TransactionFilter) ([]storage.CategoryTotal, error) {
	return nil, nil
}

func TestDashboardPropagatesFailure(t *testing.T) {
	engine := NewEngine(failingSource{})

	_, err := engine.Dashboard(context.Background(), "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
