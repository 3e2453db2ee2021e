package storage

import (
	"time"

	"github.com/mmynk/findash/internal/models"
)

// TransactionFilter selects transactions. Zero-valued fields do not constrain.
type TransactionFilter struct {
	// UserID is mandatory.
	UserID string

	// Search matches case-insensitively as a substring of name, email,
	// description or reference.
	Search string

	Type     models.TransactionType
	Category models.Category
	Status   models.Status

	// From and To bound Date, both inclusive.
	From *time.Time
	To   *time.Time
}

// SortField names a sortable transaction attribute.
type SortField string

const (
	SortByDate      SortField = "date"
	SortByAmount    SortField = "amount"
	SortByName      SortField = "name"
	SortByEmail     SortField = "email"
	SortByType      SortField = "type"
	SortByCategory  SortField = "category"
	SortByStatus    SortField = "status"
	SortByReference SortField = "reference"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

// SortFields lists every accepted sort field.
var SortFields = []SortField{
	SortByDate, SortByAmount, SortByName, SortByEmail, SortByType,
	SortByCategory, SortByStatus, SortByReference, SortByCreatedAt, SortByUpdatedAt,
}

// Valid reports whether f is a whitelisted sort field.
func (f SortField) Valid() bool {
	for _, s := range SortFields {
		if s == f {
			return true
		}
	}
	return false
}

// Sort orders query results.
type Sort struct {
	Field      SortField
	Descending bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortByDate, Descending: true}

// Page restricts results to a window. A Limit of 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// MonthlyTotal is the summed amount of one type within one calendar month.
type MonthlyTotal struct {
	Year  int
	Month int
	Type  models.TransactionType
	Total float64
}

// CategoryTotal is the summed amount and count of one category and type.
type CategoryTotal struct {
	Category models.Category
	Type     models.TransactionType
	Total    float64
	Count    int
}
