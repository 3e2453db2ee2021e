package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxReferenceLength   = 50
	MaxUserNameLength    = 50
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects field errors. The zero value is a passing result.
type ValidationResult struct {
	Errors []FieldError
}

// OK reports whether no field errors were recorded.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Add records a field error.
func (r *ValidationResult) Add(field, format string, args ...any) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether field has at least one error.
func (r ValidationResult) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Error joins all messages; it is only meaningful when OK is false.
func (r ValidationResult) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// ValidateTransaction checks required fields, enumerations and length limits.
// t is expected to be normalized.
func ValidateTransaction(t *Transaction) ValidationResult {
	var r ValidationResult

	if t.UserID == "" {
		r.Add("user", "User is required")
	}
	if t.Name == "" {
		r.Add("name", "Transaction name is required")
	} else if utf8.RuneCountInString(t.Name) > MaxNameLength {
		r.Add("name", "Name cannot be more than %d characters", MaxNameLength)
	}
	if t.Email == "" {
		r.Add("email", "Email is required")
	}
	if t.Date.IsZero() {
		r.Add("date", "Transaction date is required")
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		r.Add("amount", "Amount must be a number")
	} else if t.Amount < 0 {
		r.Add("amount", "Amount cannot be negative")
	}
	if !t.Type.Valid() {
		r.Add("type", "Type must be one of income, expense")
	}
	if !t.Category.Valid() {
		r.Add("category", "Category must be one of revenue, expenses, investment, transfer, other")
	}
	if !t.Status.Valid() {
		r.Add("status", "Status must be one of completed, pending, failed")
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		r.Add("description", "Description cannot be more than %d characters", MaxDescriptionLength)
	}
	if utf8.RuneCountInString(t.Reference) > MaxReferenceLength {
		r.Add("reference", "Reference cannot be more than %d characters", MaxReferenceLength)
	}

	return r
}

// ValidateRegistration checks the account fields supplied at sign-up.
// Password strength is the authenticator's concern; only presence is checked here.
func ValidateRegistration(name, email, password string, role Role) ValidationResult {
	var r ValidationResult

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		r.Add("name", "Name is required")
	} else if utf8.RuneCountInString(name) > MaxUserNameLength {
		r.Add("name", "Name cannot be more than %d characters", MaxUserNameLength)
	}
	if email == "" {
		r.Add("email", "Email is required")
	} else if !emailPattern.MatchString(email) {
		r.Add("email", "Please enter a valid email")
	}
	if password == "" {
		r.Add("password", "Password is required")
	}
	if role != "" && !role.Valid() {
		r.Add("role", "Role must be one of user, admin")
	}

	return r
}

// ValidateProfile checks the mutable user fields.
func ValidateProfile(name, avatar *string) ValidationResult {
	var r ValidationResult
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			r.Add("name", "Name cannot be empty")
		} else if utf8.RuneCountInString(n) > MaxUserNameLength {
			r.Add("name", "Name cannot be more than %d characters", MaxUserNameLength)
		}
	}
	if avatar != nil && utf8.RuneCountInString(*avatar) > 2048 {
		r.Add("avatar", "Avatar URL is too long")
	}
	return r
}
