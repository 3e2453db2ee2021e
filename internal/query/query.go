// Package query turns raw listing and export parameters into typed store
// filters, sort orders and pages.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/storage"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps the row offset of any page representable.
	MaxPage = math.MaxInt / MaxLimit
)

// Params are the listing parameters exactly as received. Empty means absent.
type Params struct {
	Page      string
	Limit     string
	Search    string
	Type      string
	Category  string
	Status    string
	StartDate string
	EndDate   string
	SortBy    string
	SortOrder string
}

// ParamsFromValues reads Params from URL query values.
func ParamsFromValues(v url.Values) Params {
	return Params{
		Page:      v.Get("page"),
		Limit:     v.Get("limit"),
		Search:    v.Get("search"),
		Type:      v.Get("type"),
		Category:  v.Get("category"),
		Status:    v.Get("status"),
		StartDate: v.Get("startDate"),
		EndDate:   v.Get("endDate"),
		SortBy:    v.Get("sortBy"),
		SortOrder: v.Get("sortOrder"),
	}
}

// Query is a fully resolved listing request.
type Query struct {
	Filter storage.TransactionFilter
	Sort   storage.Sort
	Page   storage.Page

	// PageNumber and Limit are the resolved 1-based page and page size.
	PageNumber int
	Limit      int
}

// Build resolves p for the transactions owned by userID.
// Invalid parameters yield an *apperr.Error listing every offending field.
func Build(userID string, p Params) (Query, error) {
	var v models.ValidationResult

	page := parsePositive(&v, "page", p.Page, DefaultPage)
	limit := parsePositive(&v, "limit", p.Limit, DefaultLimit)
	if limit > MaxLimit {
		v.Add("limit", "Limit cannot be more than %d", MaxLimit)
	}
	if page > MaxPage {
		v.Add("page", "Page cannot be more than %d", MaxPage)
	}

	filter := storage.TransactionFilter{
		UserID: userID,
		Search: strings.TrimSpace(p.Search),
	}
	applyCommon(&v, &filter, p.Type, p.Category, p.Status, p.StartDate, p.EndDate)

	sort := storage.DefaultSort
	if sortBy := strings.TrimSpace(p.SortBy); sortBy != "" {
		sort.Field = storage.SortField(sortBy)
		if !sort.Field.Valid() {
			v.Add("sortBy", "Cannot sort by %q", sortBy)
		}
	}
	if order := strings.TrimSpace(p.SortOrder); order != "" {
		sort.Descending = order == "desc"
	}

	if !v.OK() {
		return Query{}, apperr.FromValidation(v, "")
	}

	return Query{
		Filter:     filter,
		Sort:       sort,
		Page:       storage.Page{Offset: (page - 1) * limit, Limit: limit},
		PageNumber: page,
		Limit:      limit,
	}, nil
}

// ExportParams are the export filters. Columns is handled by the exporter.
type ExportParams struct {
	Columns   []string `json:"columns"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Type      string   `json:"type"`
	Category  string   `json:"category"`
	Status    string   `json:"status"`
}

// BuildExportFilter resolves the export filters for userID. Exports are not
// searched or paged.
func BuildExportFilter(userID string, p ExportParams) (storage.TransactionFilter, error) {
	var v models.ValidationResult

	filter := storage.TransactionFilter{UserID: userID}
	applyCommon(&v, &filter, p.Type, p.Category, p.Status, p.StartDate, p.EndDate)

	if !v.OK() {
		return storage.TransactionFilter{}, apperr.FromValidation(v, "")
	}
	return filter, nil
}

func applyCommon(v *models.ValidationResult, f *storage.TransactionFilter, typ, category, status, start, end string) {
	if typ = strings.TrimSpace(typ); typ != "" {
		f.Type = models.TransactionType(typ)
		if !f.Type.Valid() {
			v.Add("type", "Type must be one of income, expense")
		}
	}
	if category = strings.TrimSpace(category); category != "" {
		f.Category = models.Category(category)
		if !f.Category.Valid() {
			v.Add("category", "Category must be one of revenue, expenses, investment, transfer, other")
		}
	}
	if status = strings.TrimSpace(status); status != "" {
		f.Status = models.Status(status)
		if !f.Status.Valid() {
			v.Add("status", "Status must be one of completed, pending, failed")
		}
	}

	if start = strings.TrimSpace(start); start != "" {
		from, _, err := ParseDate(start)
		if err != nil {
			v.Add("startDate", "Invalid start date %q", start)
		} else {
			f.From = &from
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		to, dateOnly, err := ParseDate(end)
		if err != nil {
			v.Add("endDate", "Invalid end date %q", end)
		} else {
			if dateOnly {
				to = to.Add(24*time.Hour - time.Millisecond)
			}
			f.To = &to
		}
	}
}

// ParseDate accepts YYYY-MM-DD (midnight UTC) or RFC 3339. The boolean is
// true for the date-only form.
func ParseDate(s string) (time.Time, bool, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, true, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), false, nil
}

func parsePositive(v *models.ValidationResult, field, raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		v.Add(field, "%s must be a positive integer", capitalize(field))
		return def
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
