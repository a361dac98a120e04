package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL SQLSTATE 23505, SQLite "UNIQUE constraint failed", MySQL 1062 "Duplicate entry"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "23505")
}

// isEmailConflict reports whether a unique violation names the email column or index.
// Drivers that translate to gorm.ErrDuplicatedKey drop the detail, so the
// caller falls back to re-checking which value is taken.
func isEmailConflict(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "email")
}
