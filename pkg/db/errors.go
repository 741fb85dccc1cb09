package db

import (
	"strings"

	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is set, the violated constraint name (or the sqlite column list)
// must contain it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	if code := pkgerrors.PostgresCode(err); code != "" {
		if code != sqlStateUniqueViolation {
			return false
		}
		if constraintName == "" {
			return true
		}
		if constraint := pkgerrors.PostgresConstraint(err); constraint != "" {
			return strings.Contains(constraint, constraintName)
		}
		return strings.Contains(err.Error(), constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
