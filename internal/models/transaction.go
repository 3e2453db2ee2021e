package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType tells whether money came in or went out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category groups transactions for the dashboard breakdown.
type Category string

const (
	CategoryRevenue    Category = "revenue"
	CategoryExpenses   Category = "expenses"
	CategoryInvestment Category = "investment"
	CategoryTransfer   Category = "transfer"
	CategoryOther      Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryRevenue, CategoryExpenses, CategoryInvestment, CategoryTransfer, CategoryOther:
		return true
	}
	return false
}

// Status is the settlement state of a transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCompleted || s == StatusPending || s == StatusFailed
}

// Transaction represents a single financial movement owned by one user.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// UserID is the owner. Every read and write is scoped by it.
	UserID string `json:"user"`

	// Name, Email and Avatar describe the counterparty.
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`

	// Date is when the movement happened, as reported by the client.
	Date time.Time `json:"date"`

	// Amount is always non-negative; Type carries the direction.
	Amount   float64         `json:"amount"`
	Type     TransactionType `json:"type"`
	Category Category        `json:"category"`
	Status   Status          `json:"status"`

	Description string `json:"description"`
	Reference   string `json:"reference"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTransaction assigns an ID and timestamps to t, fills defaults and
// normalizes its text fields.
func NewTransaction(userID string, t Transaction) *Transaction {
	now := time.Now().UTC().Truncate(time.Millisecond)
	t.ID = uuid.New().String()
	t.UserID = userID
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}
	if t.Category == "" {
		t.Category = CategoryOther
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Normalize()
	return &t
}

// Normalize trims text fields and lower-cases the counterparty email.
func (t *Transaction) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Email = NormalizeEmail(t.Email)
	t.Description = strings.TrimSpace(t.Description)
	t.Reference = strings.TrimSpace(t.Reference)
	t.Date = t.Date.UTC().Truncate(time.Millisecond)
}

// SignedAmount returns the amount with expenses negated.
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TypeExpense {
		return -t.Amount
	}
	return t.Amount
}

// TransactionPatch is a partial update. Nil fields are left unchanged.
type TransactionPatch struct {
	Name        *string          `json:"name"`
	Email       *string          `json:"email"`
	Avatar      *string          `json:"avatar"`
	Date        *time.Time       `json:"date"`
	Amount      *float64         `json:"amount"`
	Type        *TransactionType `json:"type"`
	Category    *Category        `json:"category"`
	Status      *Status          `json:"status"`
	Description *string          `json:"description"`
	Reference   *string          `json:"reference"`
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Avatar == nil && p.Date == nil &&
		p.Amount == nil && p.Type == nil && p.Category == nil && p.Status == nil &&
		p.Description == nil && p.Reference == nil
}

// Apply copies the set fields of p onto t and re-normalizes it.
// Identity, ownership and CreatedAt are never touched.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Email != nil {
		t.Email = *p.Email
	}
	if p.Avatar != nil {
		t.Avatar = *p.Avatar
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Reference != nil {
		t.Reference = *p.Reference
	}
	t.Normalize()
}
