package database

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes mapped by the services.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
)

// SQLState extracts the Postgres error code from err, if any.
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	return SQLState(err) == UniqueViolation
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == ForeignKeyViolation
}

// ConstraintName returns the violated constraint, if reported by the server.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
