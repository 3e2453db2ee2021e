// Package export renders transactions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/models"
)

// DefaultColumns are exported when the caller names none.
var DefaultColumns = []string{
	"name", "email", "date", "amount", "type", "category", "status", "description", "reference",
}

// columnValues renders one column of a transaction.
var columnValues = map[string]func(t *models.Transaction) string{
	"id":          func(t *models.Transaction) string { return t.ID },
	"name":        func(t *models.Transaction) string { return t.Name },
	"email":       func(t *models.Transaction) string { return t.Email },
	"avatar":      func(t *models.Transaction) string { return t.Avatar },
	"date":        func(t *models.Transaction) string { return formatDate(t.Date) },
	"amount":      func(t *models.Transaction) string { return FormatAmount(t) },
	"type":        func(t *models.Transaction) string { return string(t.Type) },
	"category":    func(t *models.Transaction) string { return string(t.Category) },
	"status":      func(t *models.Transaction) string { return string(t.Status) },
	"description": func(t *models.Transaction) string { return t.Description },
	"reference":   func(t *models.Transaction) string { return t.Reference },
	"createdAt":   func(t *models.Transaction) string { return formatDate(t.CreatedAt) },
	"updatedAt":   func(t *models.Transaction) string { return formatDate(t.UpdatedAt) },
}

// ResolveColumns returns columns, or DefaultColumns when it is empty.
// Unknown names are a validation error.
func ResolveColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return slices.Clone(DefaultColumns), nil
	}

	var v models.ValidationResult
	resolved := make([]string, 0, len(columns))
	for _, c := range columns {
		c = strings.TrimSpace(c)
		if _, ok := columnValues[c]; !ok {
			v.Add("columns", "Unknown column %q", c)
			continue
		}
		resolved = append(resolved, c)
	}
	if !v.OK() {
		return nil, apperr.FromValidation(v, "")
	}
	return resolved, nil
}

// WriteCSV writes a header row of column names followed by one row per
// transaction. columns must already be resolved.
func WriteCSV(w io.Writer, txs []*models.Transaction, columns []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, t := range txs {
		for i, c := range columns {
			render, ok := columnValues[c]
			if !ok {
				return fmt.Errorf("unknown column %q", c)
			}
			row[i] = render(t)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// FormatAmount renders the signed amount in plain decimal notation.
func FormatAmount(t *models.Transaction) string {
	return decimal.NewFromFloat(t.SignedAmount()).String()
}

// Filename is the attachment name for an export made at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", now.UTC().Format(time.DateOnly))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
