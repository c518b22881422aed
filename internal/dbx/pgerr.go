package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) (string, string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

// IsUniqueViolation reports whether err is a unique_violation and returns the
// name of the violated constraint.
func IsUniqueViolation(err error) (string, bool) {
	code, constraint, ok := pgCode(err)
	if !ok || code != codeUniqueViolation {
		return "", false
	}
	return constraint, true
}

// IsForeignKeyViolation reports whether err is a foreign_key_violation.
func IsForeignKeyViolation(err error) (string, bool) {
	code, constraint, ok := pgCode(err)
	if !ok || code != codeForeignKeyViolation {
		return "", false
	}
	return constraint, true
}
