package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
// Postgres errors are matched by SQLSTATE; other drivers fall back to the
// message text. When constraintName is provided it must match as well.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	dump := pkgerrors.Dump(err)
	if dump.PGCode != "" {
		if dump.PGCode != pgUniqueViolation {
			return false
		}
		return constraintName == "" || dump.PGConstraint == constraintName
	}

	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
