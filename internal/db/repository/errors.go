// Package repository implements data access for users, properties,
// sightings, and the audit log on top of SQLite. Error values here are
// shared across all repositories so higher layers can distinguish a
// uniqueness collision (ConflictError) and a missing row (ErrNotFound)
// from infrastructure failures, which are wrapped and propagated as-is.
// Malformed input surfaces as *policy.ValidationError.
package repository

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/dnoice/roachtrack/internal/policy"
)

// ErrNotFound is returned when a lookup matches no row. Callers that
// treat absence as an empty result should check for it with errors.Is.
var ErrNotFound = errors.New("not found")

// ConflictError indicates a uniqueness violation. Field names the
// colliding column (username, email, relationship).
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *policy.ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// translateConstraint converts a SQLite constraint violation into a
// caller-fault error: a foreign key violation becomes a ValidationError
// (the caller referenced a row that does not exist), and a uniqueness
// violation becomes a field-specific ConflictError. The driver reports
// the colliding column as "table.column" in the error text. Returns nil
// if err is not a constraint violation.
func translateConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	if sqliteErr.Code != sqlite3.ErrConstraint {
		return nil
	}

	if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return policy.NewValidationError("", "referenced record does not exist")
	}

	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return &ConflictError{Field: "username", Message: "username already exists"}
	case strings.Contains(msg, "users.email"):
		return &ConflictError{Field: "email", Message: "email already exists"}
	case strings.Contains(msg, "user_properties"):
		return &ConflictError{Field: "relationship", Message: "user is already assigned to this property"}
	}
	return &ConflictError{Message: "record already exists"}
}
