// Package report computes the dashboard statistics for a user.
package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

// RecentLimit is how many of the latest transactions the dashboard shows.
const RecentLimit = 5

// Source is the subset of storage.TransactionStore the engine reads from.
type Source interface {
	FindTransactions(ctx context.Context, filter storage.TransactionFilter, sort storage.Sort, page storage.Page) ([]*models.Transaction, error)
	SumAmount(ctx context.Context, filter storage.TransactionFilter) (float64, error)
	MonthlyTotals(ctx context.Context, filter storage.TransactionFilter, loc *time.Location) ([]storage.MonthlyTotal, error)
	CategoryTotals(ctx context.Context, filter storage.TransactionFilter) ([]storage.CategoryTotal, error)
}

// MonthKey identifies one month and type in the trend series.
type MonthKey struct {
	Year  int                    `json:"year"`
	Month int                    `json:"month"`
	Type  models.TransactionType `json:"type"`
}

// MonthlyTrend is the total of one type in one month.
type MonthlyTrend struct {
	ID    MonthKey `json:"_id"`
	Total float64  `json:"total"`
}

// CategoryKey identifies one category and type.
type CategoryKey struct {
	Category models.Category        `json:"category"`
	Type     models.TransactionType `json:"type"`
}

// CategoryBreakdown is the total and count of one category and type.
type CategoryBreakdown struct {
	ID    CategoryKey `json:"_id"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

// Stats is the dashboard payload.
type Stats struct {
	TotalIncome        float64               `json:"totalIncome"`
	TotalExpenses      float64               `json:"totalExpenses"`
	MonthlyIncome      float64               `json:"monthlyIncome"`
	MonthlyExpenses    float64               `json:"monthlyExpenses"`
	Balance            float64               `json:"balance"`
	MonthlyBalance     float64               `json:"monthlyBalance"`
	RecentTransactions []*models.Transaction `json:"recentTransactions"`
	MonthlyTrends      []MonthlyTrend        `json:"monthlyTrends"`
	CategoryBreakdown  []CategoryBreakdown   `json:"categoryBreakdown"`
}

// Engine computes Stats from a Source.
type Engine struct {
	source Source
	now    func() time.Time
	loc    *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used to find the current month.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocation sets the calendar used for month boundaries and trend buckets.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		e.loc = loc
	}
}

// NewEngine creates an engine reading from source. By default it uses the
// wall clock and time.Local.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MonthBounds returns the first and last instant of the calendar month
// containing t, in loc.
func MonthBounds(t time.Time, loc *time.Location) (start, end time.Time) {
	t = t.In(loc)
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// TrendStart returns the first day of the same month one year before t, in loc.
func TrendStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year()-1, t.Month(), 1, 0, 0, 0, 0, loc)
}

// Dashboard computes the statistics for userID. The queries run
// concurrently; the first failure cancels the rest.
func (e *Engine) Dashboard(ctx context.Context, userID string) (*Stats, error) {
	now := e.now()
	monthStart, monthEnd := MonthBounds(now, e.loc)
	trendStart := TrendStart(now, e.loc)

	all := storage.TransactionFilter{UserID: userID}
	byType := func(t models.TransactionType, from, to *time.Time) storage.TransactionFilter {
		f := all
		f.Type = t
		f.From = from
		f.To = to
		return f
	}

	stats := &Stats{}
	var monthly []storage.MonthlyTotal
	var categories []storage.CategoryTotal

	g, gctx := errgroup.WithContext(ctx)

	sum := func(dst *float64, f storage.TransactionFilter, what string) {
		g.Go(func() error {
			total, err := e.source.SumAmount(gctx, f)
			if err != nil {
				return fmt.Errorf("failed to sum %s: %w", what, err)
			}
			*dst = total
			return nil
		})
	}
	sum(&stats.TotalIncome, byType(models.TypeIncome, nil, nil), "total income")
	sum(&stats.TotalExpenses, byType(models.TypeExpense, nil, nil), "total expenses")
	sum(&stats.MonthlyIncome, byType(models.TypeIncome, &monthStart, &monthEnd), "monthly income")
	sum(&stats.MonthlyExpenses, byType(models.TypeExpense, &monthStart, &monthEnd), "monthly expenses")

	g.Go(func() error {
		recent, err := e.source.FindTransactions(gctx, all, storage.DefaultSort, storage.Page{Limit: RecentLimit})
		if err != nil {
			return fmt.Errorf("failed to load recent transactions: %w", err)
		}
		stats.RecentTransactions = recent
		return nil
	})

	g.Go(func() error {
		f := all
		f.From = &trendStart
		totals, err := e.source.MonthlyTotals(gctx, f, e.loc)
		if err != nil {
			return fmt.Errorf("failed to load monthly trends: %w", err)
		}
		monthly = totals
		return nil
	})

	g.Go(func() error {
		totals, err := e.source.CategoryTotals(gctx, all)
		if err != nil {
			return fmt.Errorf("failed to load category breakdown: %w", err)
		}
		categories = totals
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Balance = stats.TotalIncome - stats.TotalExpenses
	stats.MonthlyBalance = stats.MonthlyIncome - stats.MonthlyExpenses

	if stats.RecentTransactions == nil {
		stats.RecentTransactions = []*models.Transaction{}
	}

	stats.MonthlyTrends = make([]MonthlyTrend, 0, len(monthly))
	for _, m := range monthly {
		stats.MonthlyTrends = append(stats.MonthlyTrends, MonthlyTrend{
			ID:    MonthKey{Year: m.Year, Month: m.Month, Type: m.Type},
			Total: m.Total,
		})
	}

	stats.CategoryBreakdown = make([]CategoryBreakdown, 0, len(categories))
	for _, c := range categories {
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, CategoryBreakdown{
			ID:    CategoryKey{Category: c.Category, Type: c.Type},
			Total: c.Total,
			Count: c.Count,
		})
	}

	return stats, nil
}
