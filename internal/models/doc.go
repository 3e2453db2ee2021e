// Package models defines the core domain models for the finance dashboard.
//
// # Models
//
//   - User: a registered account. Owns transactions and carries a role used
//     for authorization checks.
//   - Transaction: a single income or expense movement owned by exactly one
//     user. Counterparty name, email and avatar are stored on the
//     transaction itself; they do not reference other users.
//
// # Validation
//
// Validation lives next to the models and is independent of storage:
// ValidateTransaction and ValidateRegistration return a ValidationResult
// listing every offending field, so callers can report all problems at once.
//
// # Design Principles
//
//  1. Relationships are expressed with ID strings, never pointers.
//  2. Secrets never leave the process: User.PasswordHash is excluded from JSON.
//  3. Enumerations are typed strings with a Valid method.
package models
