package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

const transactionColumns = `id, user_id, name, email, avatar, date, amount, type, category, status,
	description, reference, created_at, updated_at`

// sortColumns maps whitelisted sort fields to column names.
var sortColumns = map[storage.SortField]string{
	storage.SortByDate:      "date",
	storage.SortByAmount:    "amount",
	storage.SortByName:      "name",
	storage.SortByEmail:     "email",
	storage.SortByType:      "type",
	storage.SortByCategory:  "category",
	storage.SortByStatus:    "status",
	storage.SortByReference: "reference",
	storage.SortByCreatedAt: "created_at",
	storage.SortByUpdatedAt: "updated_at",
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var avatar, description, reference sql.NullString
	var date, createdAt, updatedAt int64

	if err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Email, &avatar, &date, &t.Amount,
		&t.Type, &t.Category, &t.Status, &description, &reference,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	t.Avatar = avatar.String
	t.Description = description.String
	t.Reference = reference.String
	t.Date = fromMillis(date)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

// whereClause renders filter as a WHERE clause with positional arguments.
func whereClause(f storage.TransactionFilter) (string, []any, error) {
	if f.UserID == "" {
		return "", nil, storage.ErrUnscopedFilter
	}

	clauses := []string{"user_id = ?"}
	args := []any{f.UserID}

	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		clauses = append(clauses, `(unicode_lower(name) LIKE ? ESCAPE '\' OR unicode_lower(email) LIKE ? ESCAPE '\'
			OR unicode_lower(description) LIKE ? ESCAPE '\' OR unicode_lower(reference) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, toMillis(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, toMillis(*f.To))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func orderClause(s storage.Sort) (string, error) {
	if s.Field == "" {
		s = storage.DefaultSort
	}
	col, ok := sortColumns[s.Field]
	if !ok {
		return "", fmt.Errorf("unsupported sort field: %q", s.Field)
	}
	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	// id breaks ties so paging is stable.
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir), nil
}

// CreateTransaction persists a new transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := insertTransaction(ctx, s.db, t); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// CreateTransactions inserts a batch inside one database transaction.
func (s *SQLiteStore) CreateTransactions(ctx context.Context, txs []*models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range txs {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, t *models.Transaction) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.Email, nullString(t.Avatar), toMillis(t.Date), t.Amount,
		t.Type, t.Category, t.Status, nullString(t.Description), nullString(t.Reference),
		toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	return err
}

// GetTransaction retrieves a transaction owned by userID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction writes every mutable field of t.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET name = ?, email = ?, avatar = ?, date = ?, amount = ?, type = ?, category = ?,
		    status = ?, description = ?, reference = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Name, t.Email, nullString(t.Avatar), toMillis(t.Date), t.Amount, t.Type, t.Category,
		t.Status, nullString(t.Description), nullString(t.Reference), toMillis(t.UpdatedAt),
		t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// FindTransactions lists matching transactions in the requested order.
func (s *SQLiteStore) FindTransactions(ctx context.Context, filter storage.TransactionFilter, sortBy storage.Sort, page storage.Page) ([]*models.Transaction, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	order, err := orderClause(sortBy)
	if err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}
	defer rows.Close()

	txs := []*models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// CountTransactions counts matching transactions.
func (s *SQLiteStore) CountTransactions(ctx context.Context, filter storage.TransactionFilter) (int, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SumAmount sums the amount of matching transactions.
func (s *SQLiteStore) SumAmount(ctx context.Context, filter storage.TransactionFilter) (float64, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return 0, err
	}

	var total float64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// MonthlyTotals buckets matching transactions by calendar month in loc.
// SQLite has no reliable notion of the server's zone, so rows are grouped here.
func (s *SQLiteStore) MonthlyTotals(ctx context.Context, filter storage.TransactionFilter, loc *time.Location) ([]storage.MonthlyTotal, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date, type, amount FROM transactions`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	type bucket struct {
		year, month int
		typ         models.TransactionType
	}
	sums := make(map[bucket]float64)

	for rows.Next() {
		var date int64
		var typ models.TransactionType
		var amount float64
		if err := rows.Scan(&date, &typ, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly row: %w", err)
		}
		d := time.UnixMilli(date).In(loc)
		sums[bucket{d.Year(), int(d.Month()), typ}] += amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly rows: %w", err)
	}

	totals := make([]storage.MonthlyTotal, 0, len(sums))
	for b, total := range sums {
		totals = append(totals, storage.MonthlyTotal{Year: b.year, Month: b.month, Type: b.typ, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		a, b := totals[i], totals[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Type < b.Type
	})

	return totals, nil
}

// CategoryTotals groups matching transactions by category and type.
func (s *SQLiteStore) CategoryTotals(ctx context.Context, filter storage.TransactionFilter) ([]storage.CategoryTotal, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, type, SUM(amount), COUNT(*) FROM transactions`+where+
			` GROUP BY category, type ORDER BY category, type`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	totals := []storage.CategoryTotal{}
	for rows.Next() {
		var ct storage.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Type, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}

	return totals, nil
}
